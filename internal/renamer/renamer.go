// internal/renamer/renamer.go
package renamer

import (
	"fmt"
	"time"

	"kambios/internal/apply"
	"kambios/internal/diff"
	"kambios/internal/errors"
	"kambios/internal/journal"
	"kambios/internal/lister"
	"kambios/internal/plan"
	"kambios/internal/undo"
	"kambios/internal/watch"

	"go.uber.org/zap"
)

// Options configures a Renamer
type Options struct {
	SidecarName string
	Source      string // provenance tag for undo records and journal entries
	Natural     bool   // natural sort of listings
	Journal     journal.Recorder
	Logger      *zap.Logger
	Now         func() time.Time
}

// Renamer is the core API the shells drive. It keeps no per-directory state:
// every call works from the directory contents and its undo sidecar.
type Renamer struct {
	undo    *undo.Store
	engine  *apply.Engine
	journal journal.Recorder
	diff    *diff.Engine
	natural bool
	logger  *zap.Logger
}

func New(opts Options) *Renamer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}

	store := undo.NewStore(undo.Options{
		Name:   opts.SidecarName,
		Source: opts.Source,
		Logger: opts.Logger,
		Now:    opts.Now,
	})

	return &Renamer{
		undo:    store,
		engine:  apply.NewEngine(store, opts.Journal, opts.Logger),
		journal: opts.Journal,
		diff:    diff.NewEngine(0),
		natural: opts.Natural,
		logger:  opts.Logger,
	}
}

// SidecarName is the undo file name, never listed as a renamable file.
func (r *Renamer) SidecarName() string { return r.undo.Name() }

func (r *Renamer) ListFiles(dir string) ([]lister.FileEntry, error) {
	return lister.List(dir, lister.Options{
		Exclude: []string{r.undo.Name()},
		Natural: r.natural,
	})
}

func (r *Renamer) GenerateNumbering(files []lister.FileEntry, suffix string) (plan.Plan, error) {
	return r.reserve(plan.Numbering(files, suffix))
}

func (r *Renamer) GenerateFullReplace(files []lister.FileEntry, base string) (plan.Plan, error) {
	return r.reserve(plan.FullReplace(files, base))
}

func (r *Renamer) GeneratePartReplace(files []lister.FileEntry, remove, replace string) (plan.Plan, error) {
	return r.reserve(plan.PartReplace(files, remove, replace))
}

// reserve refuses generated plans that touch the undo sidecar.
func (r *Renamer) reserve(p plan.Plan, err error) (plan.Plan, error) {
	if err != nil {
		return p, err
	}
	if err := plan.CheckNames(p, r.undo.Name()); err != nil {
		return plan.Plan{}, err
	}
	return p, nil
}

// Request selects a strategy and its parameters. Text feeds numbering and
// full replace; Remove and Replace feed part replace.
type Request struct {
	Strategy plan.Strategy `json:"strategy"`
	Text     string        `json:"text,omitempty"`
	Remove   string        `json:"remove,omitempty"`
	Replace  string        `json:"replace,omitempty"`
}

func (r *Renamer) Generate(files []lister.FileEntry, req Request) (plan.Plan, error) {
	switch req.Strategy {
	case plan.StrategyNumbering:
		return r.GenerateNumbering(files, req.Text)
	case plan.StrategyFullReplace:
		return r.GenerateFullReplace(files, req.Text)
	case plan.StrategyPartReplace:
		return r.GeneratePartReplace(files, req.Remove, req.Replace)
	}
	return plan.Plan{}, errors.InvalidParameter(
		fmt.Sprintf("unknown strategy %q", req.Strategy),
		map[string]any{"strategies": []plan.Strategy{
			plan.StrategyNumbering, plan.StrategyFullReplace, plan.StrategyPartReplace,
		}})
}

func (r *Renamer) Validate(p plan.Plan) error {
	return plan.Validate(p, r.undo.Name())
}

// Preview is a generated plan with its verdict and per-pair name diffs.
type Preview struct {
	Directory string        `json:"directory"`
	Plan      plan.Plan     `json:"plan"`
	Valid     bool          `json:"valid"`
	Err       *errors.Error `json:"error,omitempty"`
	Diffs     []diff.Result `json:"diffs"`
}

// Preview lists dir, generates the requested plan and validates it. Listing
// and generation failures are returned as errors; a plan the validator
// rejects comes back with Valid false and Err set.
func (r *Renamer) Preview(dir string, req Request) (*Preview, error) {
	files, err := r.ListFiles(dir)
	if err != nil {
		return nil, err
	}

	p, err := r.Generate(files, req)
	if err != nil {
		return nil, err
	}

	pv := &Preview{
		Directory: dir,
		Plan:      p,
		Valid:     true,
		Diffs:     make([]diff.Result, len(p.Pairs)),
	}
	for i, pair := range p.Pairs {
		pv.Diffs[i] = r.diff.Names(pair.Original, pair.Proposed)
	}

	if err := r.Validate(p); err != nil {
		pv.Valid = false
		pv.Err = errors.As(err)
	}

	r.logger.Debug("plan previewed",
		zap.String("dir", dir),
		zap.String("strategy", string(req.Strategy)),
		zap.Int("pairs", p.Len()),
		zap.Bool("valid", pv.Valid))
	return pv, nil
}

// Apply validates p and, only when it passes, executes it in dir.
func (r *Renamer) Apply(dir string, p plan.Plan) (apply.Result, error) {
	if err := r.Validate(p); err != nil {
		return apply.Result{Directory: dir}, err
	}
	return r.engine.Apply(dir, p)
}

func (r *Renamer) UndoDetect(dir string) bool {
	return r.undo.Detect(dir)
}

func (r *Renamer) UndoRead(dir string) (*undo.Record, error) {
	return r.undo.Read(dir)
}

// UndoApply reverses the recorded renames and consumes the sidecar.
func (r *Renamer) UndoApply(dir string) (undo.Result, error) {
	result, err := r.undo.Apply(dir)
	if err != nil && result.Total() == 0 {
		return result, err
	}

	entry := &journal.Entry{
		Kind:      journal.KindUndo,
		Directory: dir,
		Source:    r.undo.Source(),
		Pairs:     make([]plan.Pair, len(result.Restored)),
		Succeeded: len(result.Restored),
		Failed:    len(result.Missing) + len(result.Failed),
	}
	for i, rn := range result.Restored {
		entry.Pairs[i] = plan.Pair{Original: rn.Current, Proposed: rn.Original}
	}
	if err != nil {
		entry.Message = err.Error()
	}
	if jerr := r.journal.Record(entry); jerr != nil {
		r.logger.Warn("journal entry not recorded", zap.Error(jerr))
	}

	return result, err
}

// History returns journal entries, newest first.
func (r *Renamer) History(limit int) ([]*journal.Entry, error) {
	return r.journal.List(limit)
}

// Watch reports changes to dir other than the undo sidecar.
func (r *Renamer) Watch(dir string) (*watch.Watcher, error) {
	w, err := watch.New(dir, r.logger, r.undo.Name())
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("watching %s", dir), err)
	}
	return w, nil
}

func (r *Renamer) Close() error {
	return r.journal.Close()
}
