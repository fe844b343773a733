// internal/diff/diff.go
package diff

import (
	"strings"
)

// SegmentType indicates whether a run of characters was kept, removed or added
type SegmentType int

const (
	Context SegmentType = iota
	Addition
	Deletion
)

func (t SegmentType) String() string {
	switch t {
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	default:
		return "context"
	}
}

func (t SegmentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *SegmentType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "addition":
		*t = Addition
	case "deletion":
		*t = Deletion
	default:
		*t = Context
	}
	return nil
}

// Segment is a maximal run of characters sharing one type
type Segment struct {
	Type SegmentType `json:"type"`
	Text string      `json:"text"`
}

// Result contains the segments turning Old into New
type Result struct {
	Old      string    `json:"old"`
	New      string    `json:"new"`
	Segments []Segment `json:"segments"`
	Stats    struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
}

// Engine provides name diffing for rename previews
type Engine struct {
	// names longer than this (in runes) are diffed as a whole replacement
	maxRunes int
}

// NewEngine creates a diff engine. maxRunes <= 0 selects a default bound.
func NewEngine(maxRunes int) *Engine {
	if maxRunes <= 0 {
		maxRunes = 512
	}
	return &Engine{maxRunes: maxRunes}
}

// Names generates a character-level diff between two file names
func (e *Engine) Names(oldName, newName string) Result {
	oldRunes := []rune(oldName)
	newRunes := []rune(newName)

	result := Result{Old: oldName, New: newName}

	if len(oldRunes) > e.maxRunes || len(newRunes) > e.maxRunes {
		result.Segments = mergeSegments([]Segment{
			{Type: Deletion, Text: oldName},
			{Type: Addition, Text: newName},
		})
	} else {
		lcs := e.computeLCS(oldRunes, newRunes)
		result.Segments = e.extractSegments(oldRunes, newRunes, lcs)
	}

	for _, seg := range result.Segments {
		n := len([]rune(seg.Text))
		switch seg.Type {
		case Addition:
			result.Stats.Additions += n
		case Deletion:
			result.Stats.Deletions += n
		}
	}

	return result
}

// computeLCS creates a matrix for longest common subsequence
func (e *Engine) computeLCS(oldRunes, newRunes []rune) [][]int {
	matrix := make([][]int, len(oldRunes)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(newRunes)+1)
	}

	for i := 1; i <= len(oldRunes); i++ {
		for j := 1; j <= len(newRunes); j++ {
			if oldRunes[i-1] == newRunes[j-1] {
				matrix[i][j] = matrix[i-1][j-1] + 1
			} else {
				matrix[i][j] = max(matrix[i-1][j], matrix[i][j-1])
			}
		}
	}

	return matrix
}

// extractSegments walks the LCS matrix backwards and emits segments in order
func (e *Engine) extractSegments(oldRunes, newRunes []rune, lcs [][]int) []Segment {
	var reversed []Segment

	i, j := len(oldRunes), len(newRunes)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && oldRunes[i-1] == newRunes[j-1]:
			reversed = append(reversed, Segment{Type: Context, Text: string(oldRunes[i-1])})
			i--
			j--
		case j > 0 && (i == 0 || lcs[i][j-1] >= lcs[i-1][j]):
			reversed = append(reversed, Segment{Type: Addition, Text: string(newRunes[j-1])})
			j--
		default:
			reversed = append(reversed, Segment{Type: Deletion, Text: string(oldRunes[i-1])})
			i--
		}
	}

	segments := make([]Segment, len(reversed))
	for k, seg := range reversed {
		segments[len(reversed)-1-k] = seg
	}
	return mergeSegments(segments)
}

// Format renders the diff as "[-old-]{+new+}" markup for plain terminals
func (r Result) Format() string {
	var b strings.Builder
	for _, seg := range r.Segments {
		switch seg.Type {
		case Addition:
			b.WriteString("{+" + seg.Text + "+}")
		case Deletion:
			b.WriteString("[-" + seg.Text + "-]")
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}
