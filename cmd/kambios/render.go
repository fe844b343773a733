// cmd/kambios/render.go
package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"kambios/internal/apply"
	"kambios/internal/diff"
	"kambios/internal/errors"
	"kambios/internal/journal"
	"kambios/internal/plan"
	"kambios/internal/renamer"
	"kambios/internal/undo"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

const rule = "--------------------------------------------------"

// coloredNames renders both sides of a name diff: removed runs in red on the
// old name, added runs in green on the new one.
func coloredNames(r diff.Result) (string, string) {
	var oldB, newB strings.Builder
	for _, seg := range r.Segments {
		switch seg.Type {
		case diff.Context:
			oldB.WriteString(seg.Text)
			newB.WriteString(seg.Text)
		case diff.Deletion:
			oldB.WriteString(red(seg.Text))
		case diff.Addition:
			newB.WriteString(green(seg.Text))
		}
	}
	return oldB.String(), newB.String()
}

func printPreview(w io.Writer, pv *renamer.Preview) {
	fmt.Fprintf(w, "\n%s\n", bold("Preview of changes in ", pv.Directory))
	fmt.Fprintln(w, rule)
	for i, pair := range pv.Plan.Pairs {
		oldName, newName := pair.Original, pair.Proposed
		if i < len(pv.Diffs) {
			oldName, newName = coloredNames(pv.Diffs[i])
		}
		fmt.Fprintf(w, "  %s  ->  %s\n", oldName, newName)
	}
	fmt.Fprintln(w, rule)

	if pv.Err == nil || pv.Err.Kind != errors.KindDuplicateTargets {
		return
	}
	collisions, _ := pv.Err.Details.([]plan.Collision)
	fmt.Fprintf(w, "\n%s\n", red("The new names would collide. Nothing was renamed."))
	for _, c := range collisions {
		fmt.Fprintf(w, "  %s <- %s\n", yellow(c.Proposed), strings.Join(c.Originals, ", "))
	}
}

func printApplyResult(w io.Writer, r apply.Result, sidecar string) {
	if r.Complete() {
		fmt.Fprintf(w, "\n%s\n", green(fmt.Sprintf("%d files renamed.", r.SuccessCount())))
	} else {
		fmt.Fprintf(w, "\n%s\n", yellow(fmt.Sprintf("%d renamed, %d failed, %d not attempted.",
			r.SuccessCount(), r.FailureCount(), r.UnattemptedCount())))
		if r.Failure != nil {
			fmt.Fprintf(w, "  %s %s\n", red("failed:"), r.Failure.Message)
		}
		for _, p := range r.Unattempted {
			fmt.Fprintf(w, "  %s %s\n", yellow("skipped:"), p.Original)
		}
	}
	if r.UndoWritten {
		fmt.Fprintf(w, "Run %s (or reopen this directory) to revert. Saved in %s.\n", cyan("kambios undo"), sidecar)
	}
}

func printRecord(w io.Writer, rec *undo.Record) {
	when := "unknown time"
	if rec.Timestamp != nil && !rec.Timestamp.IsZero() {
		when = rec.Timestamp.Local().Format(time.DateTime)
	}
	src := rec.Source
	if src == "" {
		src = "unknown source"
	}
	fmt.Fprintf(w, "Last batch: %d renames (%s, %s)\n", len(rec.Renames), src, when)
	for _, r := range rec.Renames {
		fmt.Fprintf(w, "  %s  ->  %s\n", r.Current, r.Original)
	}
}

func printUndoResult(w io.Writer, r undo.Result) {
	for _, rn := range r.Restored {
		fmt.Fprintf(w, "  %s  ->  %s\n", rn.Current, green(rn.Original))
	}
	for _, m := range r.Missing {
		fmt.Fprintf(w, "  %s %s not found (%s)\n", yellow("warning:"), m.Current, m.Reason)
	}
	for _, f := range r.Failed {
		fmt.Fprintf(w, "  %s %s: %s\n", red("failed:"), f.Current, f.Reason)
	}
	fmt.Fprintf(w, "\n%s\n", green(fmt.Sprintf("Undo done: %d of %d restored. The undo file was removed.", len(r.Restored), r.Total())))
}

func printHistory(w io.Writer, entries []*journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history recorded")
		return
	}
	for _, e := range entries {
		kind := green(string(e.Kind))
		if e.Kind == journal.KindUndo {
			kind = cyan(string(e.Kind))
		}
		strategy := e.Strategy
		if strategy == "" {
			strategy = "-"
		}
		fmt.Fprintf(w, "%s  %-5s  %-12s  %3d ok  %3d failed  %s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			kind,
			strategy,
			e.Succeeded,
			e.Failed,
			e.Directory,
		)
		if e.Message != "" {
			fmt.Fprintf(w, "    %s\n", red(e.Message))
		}
	}
}
