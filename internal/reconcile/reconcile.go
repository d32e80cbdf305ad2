// Package reconcile guarantees that every icon of the registry has an SVG
// file named u<codepoint>-<name>.svg before font generation reads the folder.
//
// Legacy files named <name>.svg are renamed in place. Icons with neither file
// are recorded in an ErrorLog; the pass never stops early, so one bad icon
// does not hide the others.
package reconcile

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/registry"
)

// Action is what the reconciler did for one icon.
type Action int

const (
	// ActionNone means the canonical file already existed.
	ActionNone Action = iota
	// ActionRenamed means the legacy file was moved to the canonical name.
	ActionRenamed
	// ActionMissing means neither file exists.
	ActionMissing
)

// String returns the string representation of the Action
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionRenamed:
		return "renamed"
	case ActionMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Outcome records the result for one icon.
type Outcome struct {
	Icon      registry.IconEntry
	Action    Action
	Canonical string
	Legacy    string
}

// Report lists the outcome of every icon in registry order.
type Report struct {
	Outcomes []Outcome
}

// Renamed returns the icons that were renamed during the pass.
func (r *Report) Renamed() []registry.IconEntry {
	return r.filter(ActionRenamed)
}

// Missing returns the icons without any SVG file.
func (r *Report) Missing() []registry.IconEntry {
	return r.filter(ActionMissing)
}

// Resolved returns the number of icons that have a canonical file after the pass.
func (r *Report) Resolved() int {
	return len(r.Outcomes) - len(r.Missing())
}

func (r *Report) filter(action Action) []registry.IconEntry {
	var icons []registry.IconEntry
	for _, o := range r.Outcomes {
		if o.Action == action {
			icons = append(icons, o.Icon)
		}
	}

	return icons
}

// Reconcile walks icons in order and renames legacy SVG files in svgDir to
// their canonical names. Unresolvable icons are added to log. The returned
// error is reserved for filesystem failures that make continuing pointless.
func Reconcile(svgDir string, icons []registry.IconEntry, log *errors.ErrorLog) (*Report, error) {
	info, err := os.Stat(svgDir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewMissingInputError(svgDir, err)
		}
		return nil, errors.NewIOError("STAT_SVG_DIR", fmt.Sprintf("cannot access %q", svgDir), err)
	}
	if !info.IsDir() {
		return nil, errors.NewMissingInputError(svgDir, fmt.Errorf("not a directory"))
	}

	report := &Report{Outcomes: make([]Outcome, 0, len(icons))}
	for _, icon := range icons {
		outcome, err := reconcileOne(svgDir, icon)
		if err != nil {
			return report, err
		}
		if outcome.Action == ActionMissing {
			log.Add(errors.NewIconAssetError(outcome.Legacy))
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report, nil
}

func reconcileOne(svgDir string, icon registry.IconEntry) (Outcome, error) {
	outcome := Outcome{
		Icon:      icon,
		Canonical: filepath.Join(svgDir, icon.CanonicalFileName()),
		Legacy:    filepath.Join(svgDir, icon.LegacyFileName()),
	}

	if exists(outcome.Canonical) {
		outcome.Action = ActionNone
		return outcome, nil
	}

	if !exists(outcome.Legacy) {
		outcome.Action = ActionMissing
		return outcome, nil
	}

	if err := os.Rename(outcome.Legacy, outcome.Canonical); err != nil {
		return outcome, errors.NewIOError("RENAME_SVG",
			fmt.Sprintf("cannot rename %q to %q", outcome.Legacy, outcome.Canonical), err)
	}
	outcome.Action = ActionRenamed

	return outcome, nil
}

func exists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
