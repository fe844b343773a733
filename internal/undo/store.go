package undo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kambios/internal/errors"
	"kambios/internal/plan"
	"kambios/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultName = ".kambios_undo.json"

// Options configures a Store
type Options struct {
	Name   string // sidecar file name
	Source string // provenance tag written into records
	Logger *zap.Logger
	Now    func() time.Time
}

// Store reads and writes the undo sidecar of a directory. It keeps no state
// between calls; the sidecar is the only source of truth.
type Store struct {
	name   string
	source string
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(opts Options) *Store {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		name:   opts.Name,
		source: opts.Source,
		logger: opts.Logger,
		now:    opts.Now,
	}
}

func (s *Store) Name() string { return s.name }

func (s *Store) Source() string { return s.source }

func (s *Store) Path(dir string) string {
	return filepath.Join(dir, s.name)
}

// Write stores the inverse of p, replacing any previous sidecar.
func (s *Store) Write(dir string, p plan.Plan) (*Record, error) {
	rec := &Record{
		Source:    s.source,
		Timestamp: &Timestamp{s.now()},
		ID:        uuid.New().String(),
		Renames:   make([]Rename, len(p.Pairs)),
	}
	for i, pair := range p.Pairs {
		rec.Renames[i] = Rename{Current: pair.Proposed, Original: pair.Original}
	}

	if err := s.WriteRecord(dir, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) WriteRecord(dir string, rec *Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return errors.Internal("encoding undo record", err)
	}

	path := s.Path(dir)
	if err := utils.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return errors.Internal(fmt.Sprintf("writing undo file %s", path), err)
	}

	s.logger.Debug("undo record written",
		zap.String("path", path),
		zap.String("id", rec.ID),
		zap.Int("renames", len(rec.Renames)))
	return nil
}

func (s *Store) Detect(dir string) bool {
	return utils.Exists(s.Path(dir))
}

func (s *Store) Read(dir string) (*Record, error) {
	path := s.Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("no undo available in %s", dir))
		}
		return nil, errors.Internal(fmt.Sprintf("reading undo file %s", path), err)
	}

	rec, err := decodeRecord(data, s.name)
	if err != nil {
		return nil, errors.Parse(path, err)
	}
	return rec, nil
}

// Warning describes an undo step that was skipped or failed.
type Warning struct {
	Current  string `json:"current"`
	Original string `json:"original"`
	Reason   string `json:"reason"`
}

// Result reports an undo pass.
type Result struct {
	Directory      string    `json:"directory"`
	RecordID       string    `json:"record_id,omitempty"`
	Restored       []Rename  `json:"restored"`
	Missing        []Warning `json:"missing"`
	Failed         []Warning `json:"failed"`
	SidecarRemoved bool      `json:"sidecar_removed"`
}

func (r Result) Total() int {
	return len(r.Restored) + len(r.Missing) + len(r.Failed)
}

const reasonMissing = "already moved or missing"

// Apply reverses the stored renames in order. Missing files and failed
// renames are recorded and skipped. Once the record has been read the
// sidecar is removed whatever the per-entry outcome.
func (s *Store) Apply(dir string) (Result, error) {
	result := Result{Directory: dir}

	rec, err := s.Read(dir)
	if err != nil {
		return result, err
	}
	result.RecordID = rec.ID

	for _, r := range rec.Renames {
		src := filepath.Join(dir, r.Current)
		dst := filepath.Join(dir, r.Original)

		if !utils.Exists(src) {
			s.logger.Warn("undo source missing",
				zap.String("current", r.Current),
				zap.String("original", r.Original))
			result.Missing = append(result.Missing, Warning{Current: r.Current, Original: r.Original, Reason: reasonMissing})
			continue
		}

		if err := utils.RenameNoClobber(src, dst); err != nil {
			s.logger.Warn("undo rename failed",
				zap.String("current", r.Current),
				zap.String("original", r.Original),
				zap.Error(err))
			result.Failed = append(result.Failed, Warning{Current: r.Current, Original: r.Original, Reason: err.Error()})
			continue
		}
		result.Restored = append(result.Restored, r)
	}

	if err := os.Remove(s.Path(dir)); err != nil && !os.IsNotExist(err) {
		return result, errors.Internal(fmt.Sprintf("removing undo file %s", s.Path(dir)), err)
	}
	result.SidecarRemoved = true

	s.logger.Info("undo applied",
		zap.String("dir", dir),
		zap.Int("restored", len(result.Restored)),
		zap.Int("missing", len(result.Missing)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}
