// internal/undo/record.go
package undo

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"kambios/internal/plan"
)

// Rename is one inverse step: the file now called Current goes back to
// Original. On disk it is a two-element array [current, original].
type Rename struct {
	Current  string `json:"current"`
	Original string `json:"original"`
}

func (r Rename) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{r.Current, r.Original})
}

func (r *Rename) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("rename entry must be [current, original]: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("rename entry has %d elements, want 2", len(pair))
	}
	r.Current, r.Original = pair[0], pair[1]
	return nil
}

// Timestamp is diagnostic only. Written as epoch seconds; RFC3339 strings are
// accepted on read.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	secs := float64(t.UnixNano()) / float64(time.Second)
	return json.Marshal(math.Round(secs*1000) / 1000)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err == nil {
		whole, frac := math.Modf(secs)
		t.Time = time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a number or a string")
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	t.Time = parsed
	return nil
}

// Record is the inverse of the last applied plan as stored in the sidecar.
type Record struct {
	Source    string     `json:"source,omitempty"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
	ID        string     `json:"id,omitempty"`
	Renames   []Rename   `json:"renames"`
}

// rawRecord distinguishes a missing "renames" key from an empty list.
type rawRecord struct {
	Source    string     `json:"source"`
	Timestamp *Timestamp `json:"timestamp"`
	ID        string     `json:"id"`
	Renames   *[]Rename  `json:"renames"`
}

// decodeRecord parses a sidecar. Names must be plain entries of the directory
// and none may be the sidecar itself.
func decodeRecord(data []byte, sidecar string) (*Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Renames == nil {
		return nil, fmt.Errorf(`missing "renames"`)
	}

	for i, r := range *raw.Renames {
		if err := checkName(r.Current, sidecar); err != nil {
			return nil, fmt.Errorf("rename %d: current name: %w", i, err)
		}
		if err := checkName(r.Original, sidecar); err != nil {
			return nil, fmt.Errorf("rename %d: original name: %w", i, err)
		}
	}

	return &Record{
		Source:    raw.Source,
		Timestamp: raw.Timestamp,
		ID:        raw.ID,
		Renames:   *raw.Renames,
	}, nil
}

// checkName keeps undo inside the directory the sidecar lives in.
func checkName(name, sidecar string) error {
	if err := plan.CheckName(name); err != nil {
		return err
	}
	if name == sidecar {
		return fmt.Errorf("name %q is the undo file", name)
	}
	return nil
}
