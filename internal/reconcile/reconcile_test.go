package reconcile

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/registry"
)

const sampleSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="M0 0L24 0L24 24Z"/></svg>`

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sampleSVG), 0o644))
}

func fileExists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func TestReconcileRenamesLegacyFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "home.svg")
	touch(t, dir, "uf002-star.svg")

	icons := []registry.IconEntry{
		{Name: "home", Codepoint: "f001"},
		{Name: "star", Codepoint: "f002"},
	}
	log := errors.NewErrorLog(errors.DefaultDisplayLimit)

	report, err := Reconcile(dir, icons, log)
	require.NoError(t, err)

	assert.False(t, log.HasErrors())
	assert.True(t, fileExists(dir, "uf001-home.svg"))
	assert.False(t, fileExists(dir, "home.svg"))
	assert.True(t, fileExists(dir, "uf002-star.svg"))

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, ActionRenamed, report.Outcomes[0].Action)
	assert.Equal(t, ActionNone, report.Outcomes[1].Action)
	assert.Equal(t, 2, report.Resolved())
	assert.Len(t, report.Renamed(), 1)
}

func TestReconcileIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	icons := make([]registry.IconEntry, 0, 4)
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("icon-%d", i)
		touch(t, dir, name+".svg")
		icons = append(icons, registry.IconEntry{Name: name, Codepoint: fmt.Sprintf("f%03x", i)})
	}

	first := errors.NewErrorLog(0)
	_, err := Reconcile(dir, icons, first)
	require.NoError(t, err)
	require.False(t, first.HasErrors())

	before, err := os.ReadDir(dir)
	require.NoError(t, err)

	second := errors.NewErrorLog(0)
	report, err := Reconcile(dir, icons, second)
	require.NoError(t, err)

	assert.False(t, second.HasErrors())
	assert.Empty(t, report.Renamed())

	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].Name(), after[i].Name())
	}
}

func TestReconcileExactlyOneOutcome(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.svg")
	touch(t, dir, "uf00b-b.svg")

	icons := []registry.IconEntry{
		{Name: "a", Codepoint: "f00a"},
		{Name: "b", Codepoint: "f00b"},
		{Name: "c", Codepoint: "f00c"},
	}
	log := errors.NewErrorLog(0)
	_, err := Reconcile(dir, icons, log)
	require.NoError(t, err)

	messages := strings.Join(log.Messages(), "\n")
	for _, icon := range icons {
		canonical := fileExists(dir, icon.CanonicalFileName())
		reported := strings.Contains(messages, icon.LegacyFileName()+`"`)
		assert.True(t, canonical != reported, "icon %s: canonical=%v reported=%v", icon.Name, canonical, reported)
	}
}

func TestReconcileErrorCapKeepsProcessing(t *testing.T) {
	dir := t.TempDir()
	var icons []registry.IconEntry
	for i := 0; i < 8; i++ {
		icons = append(icons, registry.IconEntry{Name: fmt.Sprintf("missing-%d", i), Codepoint: fmt.Sprintf("e%03x", i)})
	}
	// Resolvable icon after the cap has been reached.
	touch(t, dir, "late.svg")
	icons = append(icons, registry.IconEntry{Name: "late", Codepoint: "f100"})

	log := errors.NewErrorLog(errors.DefaultDisplayLimit)
	report, err := Reconcile(dir, icons, log)
	require.NoError(t, err)

	assert.True(t, fileExists(dir, "uf100-late.svg"))
	assert.False(t, fileExists(dir, "late.svg"))
	assert.Len(t, report.Missing(), 8)
	assert.Equal(t, 8, log.Total())
	assert.True(t, log.TooMany())

	var out bytes.Buffer
	err = log.Finish(&out, true)
	require.Error(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	for i := 0; i < 5; i++ {
		expected := fmt.Sprintf("Invalid icon at %q", filepath.Join(dir, fmt.Sprintf("missing-%d.svg", i)))
		assert.Equal(t, expected, lines[i])
	}
	assert.Equal(t, "etc...", lines[5])
}

func TestReconcileMissingFolder(t *testing.T) {
	_, err := Reconcile(filepath.Join(t.TempDir(), "svg"), nil, errors.NewErrorLog(0))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMissingInput))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "none", ActionNone.String())
	assert.Equal(t, "renamed", ActionRenamed.String())
	assert.Equal(t, "missing", ActionMissing.String())
	assert.Equal(t, "unknown", Action(9).String())
}
