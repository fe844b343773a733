package lister

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kambios/internal/errors"
)

// FileEntry is a plain file seen in the target directory at listing time.
type FileEntry struct {
	Name string `json:"name"`
}

type Options struct {
	// Exclude lists names that are never returned (the undo sidecar).
	Exclude []string
	// Natural orders names with numeric runs compared by value.
	Natural bool
}

// List returns the regular files of dir. Symlinks are followed; directories
// and anything else are skipped.
func List(dir string, opts Options) ([]FileEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("directory %s does not exist", dir))
		}
		return nil, errors.Internal(fmt.Sprintf("reading directory %s", dir), err)
	}
	if !info.IsDir() {
		return nil, errors.NotFound(fmt.Sprintf("%s is not a directory", dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("reading directory %s", dir), err)
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = true
	}

	files := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		if excluded[entry.Name()] || entry.IsDir() {
			continue
		}
		fi, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !fi.Mode().IsRegular() {
			// dangling symlink or special file
			continue
		}
		files = append(files, FileEntry{Name: entry.Name()})
	}

	if opts.Natural {
		sort.SliceStable(files, func(i, j int) bool {
			return NaturalLess(files[i].Name, files[j].Name)
		})
	}

	return files, nil
}

func Names(files []FileEntry) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// NaturalLess compares case-insensitively, treating digit runs as numbers so
// "2.txt" sorts before "10.txt".
func NaturalLess(a, b string) bool {
	ai, bi, la, lb := 0, 0, len(a), len(b)
	for ai < la && bi < lb {
		ca, cb := a[ai], b[bi]
		if isDigit(ca) && isDigit(cb) {
			startA, startB := ai, bi
			for ai < la && isDigit(a[ai]) {
				ai++
			}
			for bi < lb && isDigit(b[bi]) {
				bi++
			}

			numA := strings.TrimLeft(a[startA:ai], "0")
			numB := strings.TrimLeft(b[startB:bi], "0")
			if len(numA) != len(numB) {
				return len(numA) < len(numB)
			}
			if numA != numB {
				return numA < numB
			}
			// same value, fewer leading zeros first
			if ai-startA != bi-startB {
				return ai-startA < bi-startB
			}
			continue
		}

		lowA, lowB := toLower(ca), toLower(cb)
		if lowA != lowB {
			return lowA < lowB
		}
		ai++
		bi++
	}
	return la-ai < lb-bi
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
