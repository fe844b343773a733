// cmd/kambios/interactive.go
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"kambios/internal/errors"
	"kambios/internal/plan"
	"kambios/internal/renamer"
	"kambios/internal/watch"

	"go.uber.org/zap"
)

// errStale is returned when the directory changed between preview and
// confirmation.
var errStale = stderrors.New("the directory changed since the preview; nothing was renamed, run the command again")

func (a *app) prompt(question string) (string, error) {
	fmt.Fprint(a.out, question)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) confirm(question string) (bool, error) {
	answer, err := a.prompt(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true, nil
	}
	return false, nil
}

// interactive runs the menu loop. Invalid choices ask again.
func (a *app) interactive() error {
	err := a.menu()
	if stderrors.Is(err, io.EOF) {
		fmt.Fprintln(a.out)
		return nil
	}
	return err
}

func (a *app) menu() error {
	fmt.Fprintf(a.out, "\n%s\n\n", bold("=== KAMBIOS: batch rename with preview and undo ==="))

	dir := a.opts.dir
	if dir == "" {
		answer, err := a.prompt("Which directory? (empty for the current one): ")
		if err != nil {
			return err
		}
		dir = strings.TrimSpace(answer)
	}
	if dir == "" {
		cwd, err := a.workDir()
		if err != nil {
			return err
		}
		dir = cwd
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errors.NotFound(fmt.Sprintf("directory %q does not exist", dir))
	}

	if a.renamer.UndoDetect(dir) {
		fmt.Fprintf(a.out, "\n%s\n", yellow("A previous batch in this directory can be undone."))
		if rec, err := a.renamer.UndoRead(dir); err == nil {
			printRecord(a.out, rec)
		}
		ok, err := a.confirm("Undo it now?")
		if err != nil {
			return err
		}
		if ok {
			return a.undo(dir, false)
		}
	}

	for {
		fmt.Fprintln(a.out, "\nWhat do you want to do?")
		fmt.Fprintln(a.out, "1) Number files")
		fmt.Fprintln(a.out, "2) Replace the whole name")
		fmt.Fprintln(a.out, "3) Replace part of the name")
		fmt.Fprintln(a.out, "4) Exit")

		choice, err := a.prompt("\nChoose an option (1-4): ")
		if err != nil {
			return err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			return a.numberFlow(dir)
		case "2":
			return a.fullReplaceFlow(dir)
		case "3":
			return a.partReplaceFlow(dir)
		case "4":
			fmt.Fprintln(a.out, "Bye!")
			return nil
		default:
			fmt.Fprintln(a.out, red("Invalid option."))
		}
	}
}

// listForFlow prints the files a flow would work on. It reports false when
// there is nothing to rename.
func (a *app) listForFlow(dir string) (bool, error) {
	files, err := a.renamer.ListFiles(dir)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		fmt.Fprintln(a.out, "The directory has no files.")
		return false, nil
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	fmt.Fprintf(a.out, "\nFiles in %s: %s\n", dir, strings.Join(names, ", "))
	return true, nil
}

// askText re-prompts until a non-empty answer is given.
func (a *app) askText(question, emptyMsg string) (string, error) {
	for {
		text, err := a.prompt(question)
		if err != nil {
			return "", err
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, nil
		}
		fmt.Fprintln(a.out, red(emptyMsg))
	}
}

func (a *app) numberFlow(dir string) error {
	if ok, err := a.listForFlow(dir); !ok {
		return err
	}
	text, err := a.askText("Text after the number: ", "The text cannot be empty.")
	if err != nil {
		return err
	}
	return a.runPlan(dir, renamer.Request{Strategy: plan.StrategyNumbering, Text: text})
}

func (a *app) fullReplaceFlow(dir string) error {
	if ok, err := a.listForFlow(dir); !ok {
		return err
	}
	text, err := a.askText("New base name: ", "The name cannot be empty.")
	if err != nil {
		return err
	}
	return a.runPlan(dir, renamer.Request{Strategy: plan.StrategyFullReplace, Text: text})
}

func (a *app) partReplaceFlow(dir string) error {
	if ok, err := a.listForFlow(dir); !ok {
		return err
	}
	var remove string
	for remove == "" {
		text, err := a.prompt("Text to remove: ")
		if err != nil {
			return err
		}
		if remove = text; remove == "" {
			fmt.Fprintln(a.out, red("Enter the text to remove."))
		}
	}
	replace, err := a.prompt("Text to put instead (may be empty): ")
	if err != nil {
		return err
	}
	return a.runPlan(dir, renamer.Request{Strategy: plan.StrategyPartReplace, Remove: remove, Replace: replace})
}

// runPlan previews req over dir, asks for confirmation and applies. A plan
// with nothing to do is not an error.
func (a *app) runPlan(dir string, req renamer.Request) error {
	// watch before listing so nothing slips in between preview and apply
	w := a.watch(dir)
	if w != nil {
		defer w.Close()
	}

	preview := a.preview
	if preview == nil {
		preview = a.renamer.Preview
	}
	pv, err := preview(dir, req)
	if err != nil {
		return err
	}

	if !pv.Valid && pv.Err.Kind == errors.KindEmptyPlan {
		fmt.Fprintln(a.out, "No changes to apply.")
		return nil
	}
	printPreview(a.out, pv)
	if !pv.Valid {
		return pv.Err
	}

	if !a.opts.yes {
		ok, err := a.confirm(fmt.Sprintf("\nApply these %d changes?", pv.Plan.Len()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled. Nothing was renamed.")
			return nil
		}
	}

	if w != nil && w.Changed() {
		a.logger.Info("plan went stale", zap.Strings("changed", w.Events()))
		return errStale
	}

	result, err := a.renamer.Apply(dir, pv.Plan)
	printApplyResult(a.out, result, a.renamer.SidecarName())
	if err != nil {
		return err
	}
	if result.Failure != nil {
		return result.Failure.Err
	}
	return nil
}

// watch is best effort: without a watcher the plan is applied as confirmed.
func (a *app) watch(dir string) *watch.Watcher {
	w, err := a.renamer.Watch(dir)
	if err != nil {
		a.logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}
	return w
}

func (a *app) undo(dir string, ask bool) error {
	rec, err := a.renamer.UndoRead(dir)
	if err != nil {
		return err
	}

	if ask && !a.opts.yes {
		printRecord(a.out, rec)
		ok, err := a.confirm("\nUndo these renames?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled.")
			return nil
		}
	}

	fmt.Fprintf(a.out, "\nUndoing %d changes:\n", len(rec.Renames))
	result, err := a.renamer.UndoApply(dir)
	if err != nil && result.Total() == 0 {
		return err
	}
	printUndoResult(a.out, result)
	return err
}

func (a *app) status(dir string) error {
	if !a.renamer.UndoDetect(dir) {
		fmt.Fprintf(a.out, "Nothing to undo in %s\n", dir)
		return nil
	}
	rec, err := a.renamer.UndoRead(dir)
	if err != nil {
		return err
	}
	printRecord(a.out, rec)
	return nil
}

func (a *app) history(limit int) error {
	entries, err := a.renamer.History(limit)
	if err != nil {
		return err
	}
	printHistory(a.out, entries)
	return nil
}
