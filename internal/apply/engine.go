// internal/apply/engine.go
package apply

import (
	"fmt"
	"path/filepath"

	"kambios/internal/errors"
	"kambios/internal/journal"
	"kambios/internal/plan"
	"kambios/internal/undo"
	"kambios/shared/utils"

	"go.uber.org/zap"
)

// Failure is the rename that stopped an apply.
type Failure struct {
	Pair    plan.Pair     `json:"pair"`
	Message string        `json:"message"`
	Err     *errors.Error `json:"-"`
}

// Result reports how far an apply got.
type Result struct {
	Directory   string      `json:"directory"`
	Succeeded   []plan.Pair `json:"succeeded"`
	Failure     *Failure    `json:"failure,omitempty"`
	Unattempted []plan.Pair `json:"unattempted"`
	UndoWritten bool        `json:"undo_written"`
	UndoID      string      `json:"undo_id,omitempty"`
}

func (r Result) SuccessCount() int { return len(r.Succeeded) }

func (r Result) FailureCount() int {
	if r.Failure != nil {
		return 1
	}
	return 0
}

func (r Result) UnattemptedCount() int { return len(r.Unattempted) }

func (r Result) Complete() bool { return r.Failure == nil && len(r.Unattempted) == 0 }

type Engine struct {
	undo    *undo.Store
	journal journal.Recorder
	logger  *zap.Logger
}

func NewEngine(store *undo.Store, rec journal.Recorder, logger *zap.Logger) *Engine {
	if rec == nil {
		rec = journal.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{undo: store, journal: rec, logger: logger}
}

// Apply renames every pair of p inside dir, in order, and stops at the first
// failure. Renames already done stay done. The undo record covers exactly
// the pairs that succeeded; when none did, the existing record is kept.
func (e *Engine) Apply(dir string, p plan.Plan) (Result, error) {
	result := Result{
		Directory:   dir,
		Succeeded:   []plan.Pair{},
		Unattempted: []plan.Pair{},
	}
	if err := plan.CheckNames(p, e.undo.Name()); err != nil {
		return result, err
	}

	for i, pair := range p.Pairs {
		src := filepath.Join(dir, pair.Original)
		dst := filepath.Join(dir, pair.Proposed)

		if err := utils.RenameNoClobber(src, dst); err != nil {
			rerr := errors.RenameIO(fmt.Sprintf("renaming %q to %q", pair.Original, pair.Proposed), err)
			result.Failure = &Failure{Pair: pair, Message: rerr.Error(), Err: rerr}
			result.Unattempted = append(result.Unattempted, p.Pairs[i+1:]...)

			e.logger.Warn("rename failed",
				zap.String("dir", dir),
				zap.String("original", pair.Original),
				zap.String("proposed", pair.Proposed),
				zap.Int("unattempted", len(result.Unattempted)),
				zap.Error(err))
			break
		}
		result.Succeeded = append(result.Succeeded, pair)
	}

	var werr error
	if len(result.Succeeded) > 0 {
		rec, err := e.undo.Write(dir, plan.Plan{Strategy: p.Strategy, Pairs: result.Succeeded})
		if err != nil {
			werr = err
			e.logger.Error("undo record not written", zap.String("dir", dir), zap.Error(err))
		} else {
			result.UndoWritten = true
			result.UndoID = rec.ID
		}
	}

	e.logger.Info("plan applied",
		zap.String("dir", dir),
		zap.String("strategy", string(p.Strategy)),
		zap.Int("succeeded", result.SuccessCount()),
		zap.Int("failed", result.FailureCount()),
		zap.Int("unattempted", result.UnattemptedCount()))

	e.record(dir, p, result)
	return result, werr
}

func (e *Engine) record(dir string, p plan.Plan, result Result) {
	entry := &journal.Entry{
		Kind:      journal.KindApply,
		Directory: dir,
		Strategy:  string(p.Strategy),
		Source:    e.undo.Source(),
		Pairs:     result.Succeeded,
		Succeeded: result.SuccessCount(),
		Failed:    result.FailureCount(),
	}
	if result.Failure != nil {
		entry.Message = result.Failure.Message
	}
	if err := e.journal.Record(entry); err != nil {
		e.logger.Warn("journal entry not recorded", zap.Error(err))
	}
}
