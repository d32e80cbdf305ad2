//go:build property
// +build property

package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/registry"
)

// TestReconcileProperties checks the outcome invariants over random folders.
func TestReconcileProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	// Property: every icon ends with a canonical file or a missing outcome, never both.
	properties.Property("exactly one outcome per icon", prop.ForAll(
		func(states []int) bool {
			dir, err := os.MkdirTemp("", "reconcile-prop")
			if err != nil {
				return false
			}
			defer os.RemoveAll(dir)

			icons := make([]registry.IconEntry, len(states))
			for i, state := range states {
				icons[i] = registry.IconEntry{Name: fmt.Sprintf("icon-%d", i), Codepoint: fmt.Sprintf("e%03x", i)}
				switch state {
				case 1:
					os.WriteFile(filepath.Join(dir, icons[i].LegacyFileName()), []byte("<svg/>"), 0o644)
				case 2:
					os.WriteFile(filepath.Join(dir, icons[i].CanonicalFileName()), []byte("<svg/>"), 0o644)
				}
			}

			report, err := Reconcile(dir, icons, errors.NewErrorLog(0))
			if err != nil {
				return false
			}
			for i, outcome := range report.Outcomes {
				_, statErr := os.Stat(filepath.Join(dir, icons[i].CanonicalFileName()))
				canonical := statErr == nil
				if canonical == (outcome.Action == ActionMissing) {
					return false
				}
				if (states[i] == 0) != (outcome.Action == ActionMissing) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, gen.IntRange(0, 2)),
	))

	// Property: a second pass never renames anything.
	properties.Property("second pass is a no-op", prop.ForAll(
		func(states []int) bool {
			dir, err := os.MkdirTemp("", "reconcile-prop")
			if err != nil {
				return false
			}
			defer os.RemoveAll(dir)

			icons := make([]registry.IconEntry, len(states))
			for i, state := range states {
				icons[i] = registry.IconEntry{Name: fmt.Sprintf("icon-%d", i), Codepoint: fmt.Sprintf("e%03x", i)}
				if state == 1 {
					os.WriteFile(filepath.Join(dir, icons[i].LegacyFileName()), []byte("<svg/>"), 0o644)
				}
			}

			if _, err := Reconcile(dir, icons, errors.NewErrorLog(0)); err != nil {
				return false
			}
			second, err := Reconcile(dir, icons, errors.NewErrorLog(0))
			if err != nil {
				return false
			}
			return len(second.Renamed()) == 0
		},
		gen.SliceOfN(10, gen.IntRange(0, 1)),
	))

	properties.TestingRun(t)
}
