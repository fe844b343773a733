package main

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"kambios/internal/errors"
	"kambios/internal/renamer"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func setupDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0644))
	}
	return dir
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func writeConfig(t *testing.T, journal bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"log_level": "error", "journal": {"enabled": false}}`
	if journal {
		content = `{"log_level": "error", "journal": {"enabled": true, "path": "` +
			filepath.ToSlash(filepath.Join(t.TempDir(), "journal")) + `"}}`
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes one kambios invocation with the given stdin.
func run(t *testing.T, cfg, input string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))

	err := cmd.Execute()
	require.NoError(t, a.close())
	return out.String(), err
}

func TestNumberCommand(t *testing.T) {
	dir := setupDir(t, "a.txt", "b.txt")
	cfg := writeConfig(t, false)

	out, err := run(t, cfg, "", "-C", dir, "number", "doc", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt  ->  0 - doc.txt")
	assert.Contains(t, out, "2 files renamed.")
	assert.Equal(t, []string{".kambios_undo.json", "0 - doc.txt", "1 - doc.txt"}, dirNames(t, dir))

	out, err = run(t, cfg, "", "-C", dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Last batch: 2 renames (kambios_cli")

	out, err = run(t, cfg, "y\n", "-C", dir, "undo")
	require.NoError(t, err)
	assert.Contains(t, out, "Undo done: 2 of 2 restored.")
	assert.Equal(t, []string{"a.txt", "b.txt"}, dirNames(t, dir))

	out, err = run(t, cfg, "", "-C", dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to undo")
}

func TestConfirmDeclined(t *testing.T) {
	dir := setupDir(t, "x.mp4", "y.srt")
	cfg := writeConfig(t, false)

	out, err := run(t, cfg, "n\n", "-C", dir, "replace", "movie")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Equal(t, []string{"x.mp4", "y.srt"}, dirNames(t, dir))
}

func TestDuplicateTargetsFail(t *testing.T) {
	dir := setupDir(t, "x.txt", "y.txt")
	cfg := writeConfig(t, false)

	out, err := run(t, cfg, "", "-C", dir, "replace", "same", "--yes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindDuplicateTargets))
	assert.Contains(t, out, "same.txt <- x.txt, y.txt")
	assert.Equal(t, []string{"x.txt", "y.txt"}, dirNames(t, dir))
}

func TestNothingToDo(t *testing.T) {
	dir := setupDir(t, "a.txt")
	cfg := writeConfig(t, false)

	out, err := run(t, cfg, "", "-C", dir, "part", "zzz", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "No changes to apply.")
}

func TestPartCommand(t *testing.T) {
	dir := setupDir(t, "Game (USA) (USA).rom", "Other.rom")
	cfg := writeConfig(t, false)

	_, err := run(t, cfg, "", "-C", dir, "part", " (USA)", "--yes")
	require.NoError(t, err)
	assert.Equal(t, []string{".kambios_undo.json", "Game.rom", "Other.rom"}, dirNames(t, dir))
}

func TestInteractiveMenu(t *testing.T) {
	dir := setupDir(t, "a.txt", "b.txt")
	cfg := writeConfig(t, false)

	input := strings.Join([]string{dir, "9", "", "1", "", "doc", "y"}, "\n") + "\n"
	out, err := run(t, cfg, input)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "Invalid option."))
	assert.Contains(t, out, "The text cannot be empty.")
	assert.Contains(t, out, "2 files renamed.")
	assert.Equal(t, []string{".kambios_undo.json", "0 - doc.txt", "1 - doc.txt"}, dirNames(t, dir))

	out, err = run(t, cfg, dir+"\ny\n")
	require.NoError(t, err)
	assert.Contains(t, out, "A previous batch in this directory can be undone.")
	assert.Equal(t, []string{"a.txt", "b.txt"}, dirNames(t, dir))
}

func TestInteractiveExitAndEOF(t *testing.T) {
	dir := setupDir(t, "a.txt")
	cfg := writeConfig(t, false)

	out, err := run(t, cfg, "4\n", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Bye!")

	_, err = run(t, cfg, dir+"\n")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, dirNames(t, dir))
}

func TestInteractiveMissingDir(t *testing.T) {
	cfg := writeConfig(t, false)
	_, err := run(t, cfg, filepath.Join(t.TempDir(), "nope")+"\n")
	assert.True(t, errors.Is(err, errors.KindNotFound))
}

func TestHistoryCommand(t *testing.T) {
	dir := setupDir(t, "a.txt", "b.txt")
	cfg := writeConfig(t, true)

	_, err := run(t, cfg, "", "-C", dir, "number", "doc", "--yes")
	require.NoError(t, err)
	_, err = run(t, cfg, "", "-C", dir, "undo", "--yes")
	require.NoError(t, err)

	out, err := run(t, cfg, "", "history", "--limit", "5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "undo")
	assert.Contains(t, lines[1], "apply")
	assert.Contains(t, lines[1], "numbering")

	out, err = run(t, cfg, "", "--no-journal", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded")
}

func TestChangeAfterListingIsStale(t *testing.T) {
	dir := setupDir(t, "a.txt", "b.txt")
	cfg := writeConfig(t, false)

	a := &app{}
	a.preview = func(dir string, req renamer.Request) (*renamer.Preview, error) {
		pv, err := a.renamer.Preview(dir, req)
		// a file shows up right after the listing
		require.NoError(t, os.WriteFile(filepath.Join(dir, "late.txt"), nil, 0644))
		time.Sleep(200 * time.Millisecond)
		return pv, err
	}

	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", cfg, "-C", dir, "number", "doc", "--yes"})

	err := cmd.Execute()
	require.NoError(t, a.close())
	assert.ErrorIs(t, err, errStale)
	assert.Equal(t, []string{"a.txt", "b.txt", "late.txt"}, dirNames(t, dir))
}
