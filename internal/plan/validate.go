package plan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"kambios/internal/errors"
)

// Validate accepts a non-empty plan of plain names, none of them reserved,
// whose proposed names are pairwise distinct. Self-renames are tolerated. A
// rejected plan is rejected whole.
func Validate(p Plan, reserved ...string) error {
	if p.Empty() {
		return errors.EmptyPlan("")
	}

	if err := CheckNames(p, reserved...); err != nil {
		return err
	}

	if collisions := Collisions(p); len(collisions) > 0 {
		names := make([]string, len(collisions))
		for i, c := range collisions {
			names[i] = c.Proposed
		}
		return errors.DuplicateTargets(
			fmt.Sprintf("new names would collide: %s", strings.Join(names, ", ")),
			collisions)
	}

	return nil
}

// Collisions lists every proposed name claimed by more than one pair, sorted
// by proposed name so the result does not depend on pair order.
func Collisions(p Plan) []Collision {
	claims := make(map[string][]string)
	for _, pair := range p.Pairs {
		claims[pair.Proposed] = append(claims[pair.Proposed], pair.Original)
	}

	var out []Collision
	for proposed, originals := range claims {
		if len(originals) < 2 {
			continue
		}
		sorted := append([]string(nil), originals...)
		sort.Strings(sorted)
		out = append(out, Collision{Proposed: proposed, Originals: sorted})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Proposed < out[j].Proposed })
	return out
}

// CheckName accepts a single path element: not empty, not "." or "..", and
// free of path separators.
func CheckName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid name %q", name)
	case strings.ContainsRune(name, '/'), strings.ContainsRune(name, filepath.Separator):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}

// CheckNames rejects pairs that would reach outside the directory or touch a
// reserved name such as the undo sidecar.
func CheckNames(p Plan, reserved ...string) error {
	for _, pair := range p.Pairs {
		for _, name := range []string{pair.Original, pair.Proposed} {
			if err := CheckName(name); err != nil {
				return errors.InvalidParameter(
					fmt.Sprintf("%q -> %q: %v", pair.Original, pair.Proposed, err),
					pair)
			}
			for _, r := range reserved {
				if name == r {
					return errors.InvalidParameter(
						fmt.Sprintf("%q -> %q: %q is reserved", pair.Original, pair.Proposed, r),
						pair)
				}
			}
		}
	}
	return nil
}
