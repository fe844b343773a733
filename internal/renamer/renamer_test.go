package renamer

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"kambios/internal/diff"
	"kambios/internal/errors"
	"kambios/internal/journal"
	"kambios/internal/plan"
	"kambios/internal/undo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func setupRenamer(t *testing.T) (*Renamer, *journal.Journal) {
	t.Helper()
	j, err := journal.Open(journal.Options{})
	require.NoError(t, err)
	r := New(Options{Source: "kambios_test", Journal: j})
	t.Cleanup(func() { r.Close() })
	return r, j
}

func TestNumberingScenario(t *testing.T) {
	dir := setupDir(t, "a.txt", "b.txt")
	r, _ := setupRenamer(t)

	files, err := r.ListFiles(dir)
	require.NoError(t, err)
	p, err := r.GenerateNumbering(files, "doc")
	require.NoError(t, err)
	assert.Equal(t, []plan.Pair{
		{Original: "a.txt", Proposed: "0 - doc.txt"},
		{Original: "b.txt", Proposed: "1 - doc.txt"},
	}, p.Pairs)

	result, err := r.Apply(dir, p)
	require.NoError(t, err)
	assert.True(t, result.Complete())

	rec, err := r.UndoRead(dir)
	require.NoError(t, err)
	assert.Equal(t, []undo.Rename{
		{Current: "0 - doc.txt", Original: "a.txt"},
		{Current: "1 - doc.txt", Original: "b.txt"},
	}, rec.Renames)

	undone, err := r.UndoApply(dir)
	require.NoError(t, err)
	assert.Len(t, undone.Restored, 2)
	assert.Equal(t, []string{"a.txt", "b.txt"}, dirNames(t, dir))
	assert.False(t, r.UndoDetect(dir))
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		req   Request
	}{
		{"numbering", []string{"IMG_1.jpg", "IMG_2.jpg", "notes"}, Request{Strategy: plan.StrategyNumbering, Text: "trip"}},
		{"full replace", []string{"x.mp4", "y.srt"}, Request{Strategy: plan.StrategyFullReplace, Text: "movie"}},
		{"part replace", []string{"a_b_c.txt", "keep.txt"}, Request{Strategy: plan.StrategyPartReplace, Remove: "_", Replace: "-"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupDir(t, tt.files...)
			r, _ := setupRenamer(t)
			before := dirNames(t, dir)

			pv, err := r.Preview(dir, tt.req)
			require.NoError(t, err)
			require.True(t, pv.Valid)

			_, err = r.Apply(dir, pv.Plan)
			require.NoError(t, err)
			assert.True(t, r.UndoDetect(dir))

			_, err = r.UndoApply(dir)
			require.NoError(t, err)
			assert.Equal(t, before, dirNames(t, dir))
			assert.False(t, r.UndoDetect(dir))
		})
	}
}

func TestListingSkipsSidecar(t *testing.T) {
	dir := setupDir(t, "a.txt", undo.DefaultName)
	r, _ := setupRenamer(t)

	files, err := r.ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Name)
}

func TestPreviewRejectsCollisions(t *testing.T) {
	dir := setupDir(t, "x.txt", "y.txt")
	r, _ := setupRenamer(t)

	pv, err := r.Preview(dir, Request{Strategy: plan.StrategyFullReplace, Text: "same"})
	require.NoError(t, err)
	assert.False(t, pv.Valid)
	require.NotNil(t, pv.Err)
	assert.Equal(t, errors.KindDuplicateTargets, pv.Err.Kind)

	_, err = r.Apply(dir, pv.Plan)
	assert.True(t, errors.Is(err, errors.KindDuplicateTargets))
	assert.Equal(t, []string{"x.txt", "y.txt"}, dirNames(t, dir))
	assert.False(t, r.UndoDetect(dir))
}

func TestPreviewDiffs(t *testing.T) {
	dir := setupDir(t, "a.txt")
	r, _ := setupRenamer(t)

	pv, err := r.Preview(dir, Request{Strategy: plan.StrategyNumbering, Text: "doc"})
	require.NoError(t, err)
	require.Len(t, pv.Diffs, 1)

	segs := pv.Diffs[0].Segments
	last := segs[len(segs)-1]
	assert.Equal(t, diff.Context, last.Type)
	assert.Equal(t, ".txt", last.Text)
}

func TestPreviewErrors(t *testing.T) {
	r, _ := setupRenamer(t)

	_, err := r.Preview(filepath.Join(t.TempDir(), "missing"), Request{Strategy: plan.StrategyNumbering, Text: "x"})
	assert.True(t, errors.Is(err, errors.KindNotFound))

	dir := setupDir(t, "a.txt")
	_, err = r.Preview(dir, Request{Strategy: "shuffle"})
	assert.True(t, errors.Is(err, errors.KindInvalidParameter))

	_, err = r.Preview(dir, Request{Strategy: plan.StrategyNumbering})
	assert.True(t, errors.Is(err, errors.KindInvalidParameter))

	pv, err := r.Preview(dir, Request{Strategy: plan.StrategyPartReplace, Remove: "zzz"})
	require.NoError(t, err)
	assert.False(t, pv.Valid)
	assert.Equal(t, errors.KindEmptyPlan, pv.Err.Kind)
}

func TestPartialApply(t *testing.T) {
	dir := setupDir(t, "a.txt", "c.txt")
	r, _ := setupRenamer(t)

	p := plan.Plan{Strategy: plan.StrategyNumbering, Pairs: []plan.Pair{
		{Original: "a.txt", Proposed: "0 - doc.txt"},
		{Original: "b.txt", Proposed: "1 - doc.txt"},
		{Original: "c.txt", Proposed: "2 - doc.txt"},
	}}
	result, err := r.Apply(dir, p)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount())
	assert.Equal(t, 1, result.FailureCount())
	assert.Equal(t, 1, result.UnattemptedCount())

	rec, err := r.UndoRead(dir)
	require.NoError(t, err)
	assert.Equal(t, []undo.Rename{{Current: "0 - doc.txt", Original: "a.txt"}}, rec.Renames)
}

func TestUndoWithoutSidecar(t *testing.T) {
	r, _ := setupRenamer(t)
	_, err := r.UndoApply(setupDir(t, "a.txt"))
	assert.True(t, errors.Is(err, errors.KindNotFound))
}

func TestHistory(t *testing.T) {
	dir := setupDir(t, "a.txt", "b.txt")
	r, _ := setupRenamer(t)

	pv, err := r.Preview(dir, Request{Strategy: plan.StrategyNumbering, Text: "doc"})
	require.NoError(t, err)
	_, err = r.Apply(dir, pv.Plan)
	require.NoError(t, err)
	_, err = r.UndoApply(dir)
	require.NoError(t, err)

	entries, err := r.History(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, journal.KindUndo, entries[0].Kind)
	assert.Equal(t, journal.KindApply, entries[1].Kind)
	assert.Equal(t, 2, entries[1].Succeeded)
	assert.Equal(t, "kambios_test", entries[1].Source)
}

func TestSecondApplyOverwritesUndo(t *testing.T) {
	dir := setupDir(t, "a.txt")
	r, _ := setupRenamer(t)

	_, err := r.Apply(dir, plan.Plan{Pairs: []plan.Pair{{Original: "a.txt", Proposed: "b.txt"}}})
	require.NoError(t, err)
	_, err = r.Apply(dir, plan.Plan{Pairs: []plan.Pair{{Original: "b.txt", Proposed: "c.txt"}}})
	require.NoError(t, err)

	_, err = r.UndoApply(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, dirNames(t, dir))
}

func TestUndoFileNameIsReserved(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("USER DATA"), 0644))
	r, _ := setupRenamer(t)

	files, err := r.ListFiles(dir)
	require.NoError(t, err)

	_, err = r.GenerateFullReplace(files, ".kambios_undo")
	assert.True(t, errors.Is(err, errors.KindInvalidParameter))

	_, err = r.Preview(dir, Request{Strategy: plan.StrategyPartReplace, Remove: "a", Replace: ".kambios_undo"})
	assert.True(t, errors.Is(err, errors.KindInvalidParameter))

	result, err := r.Apply(dir, plan.Plan{Pairs: []plan.Pair{{Original: "a.json", Proposed: undo.DefaultName}}})
	assert.True(t, errors.Is(err, errors.KindInvalidParameter))
	assert.Zero(t, result.SuccessCount())

	assert.Equal(t, []string{"a.json"}, dirNames(t, dir))
	got, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, "USER DATA", string(got))
}

func TestApplyStaysInsideDirectory(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "work")
	require.NoError(t, os.Mkdir(dir, 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "outside.txt"), []byte("outside"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	r, _ := setupRenamer(t)

	tests := []struct {
		name string
		pair plan.Pair
	}{
		{"pull from parent", plan.Pair{Original: "../outside.txt", Proposed: "stolen.txt"}},
		{"push to parent", plan.Pair{Original: "a.txt", Proposed: "../a.txt"}},
		{"push into subdir", plan.Pair{Original: "a.txt", Proposed: "sub/a.txt"}},
		{"absolute target", plan.Pair{Original: "a.txt", Proposed: filepath.Join(parent, "a.txt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Apply(dir, plan.Plan{Pairs: []plan.Pair{tt.pair}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.KindInvalidParameter))
			assert.Zero(t, result.SuccessCount())
			assert.False(t, r.UndoDetect(dir))
		})
	}

	assert.Equal(t, []string{"a.txt", "sub"}, dirNames(t, dir))
	assert.Equal(t, []string{"outside.txt", "work"}, dirNames(t, parent))
}
