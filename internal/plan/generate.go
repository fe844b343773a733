package plan

import (
	"fmt"
	"path/filepath"
	"strings"

	"kambios/internal/errors"
	"kambios/internal/lister"
)

// SplitExt splits at the last dot. A name without a dot has no extension.
func SplitExt(name string) (base, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// Numbering proposes "{i} - {suffix}{ext}" with a 0-based index.
func Numbering(files []lister.FileEntry, suffix string) (Plan, error) {
	if err := requireText("text", suffix); err != nil {
		return Plan{}, err
	}
	if err := noSeparator("text", suffix); err != nil {
		return Plan{}, err
	}

	p := Plan{Strategy: StrategyNumbering}
	for i, f := range files {
		_, ext := SplitExt(f.Name)
		p.add(f.Name, fmt.Sprintf("%d - %s%s", i, suffix, ext))
	}
	return p, p.check()
}

// FullReplace proposes "{base}{ext}" for every file.
func FullReplace(files []lister.FileEntry, base string) (Plan, error) {
	if err := requireText("text", base); err != nil {
		return Plan{}, err
	}
	if err := noSeparator("text", base); err != nil {
		return Plan{}, err
	}

	p := Plan{Strategy: StrategyFullReplace}
	for _, f := range files {
		_, ext := SplitExt(f.Name)
		p.add(f.Name, base+ext)
	}
	return p, p.check()
}

// PartReplace replaces every occurrence of remove. Files that do not contain
// it are left out of the plan.
func PartReplace(files []lister.FileEntry, remove, replace string) (Plan, error) {
	if err := requireText("remove", remove); err != nil {
		return Plan{}, err
	}
	if err := noSeparator("replace", replace); err != nil {
		return Plan{}, err
	}

	p := Plan{Strategy: StrategyPartReplace}
	for _, f := range files {
		if !strings.Contains(f.Name, remove) {
			continue
		}
		p.add(f.Name, strings.ReplaceAll(f.Name, remove, replace))
	}
	return p, p.check()
}

func (p *Plan) add(original, proposed string) {
	if original == proposed {
		return
	}
	p.Pairs = append(p.Pairs, Pair{Original: original, Proposed: proposed})
}

// check rejects targets that would leave the directory or cannot be names.
func (p Plan) check() error {
	for _, pair := range p.Pairs {
		if err := CheckName(pair.Proposed); err != nil {
			return errors.InvalidParameter(
				fmt.Sprintf("%q would be renamed to the invalid name %q", pair.Original, pair.Proposed),
				pair)
		}
	}
	return nil
}

func requireText(field, text string) error {
	if text == "" {
		return errors.InvalidParameter(fmt.Sprintf("%s must not be empty", field),
			map[string]string{"field": field})
	}
	return nil
}

func noSeparator(field, text string) error {
	if strings.ContainsRune(text, '/') || strings.ContainsRune(text, filepath.Separator) {
		return errors.InvalidParameter(fmt.Sprintf("%s must not contain a path separator", field),
			map[string]string{"field": field})
	}
	return nil
}
