package summary

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modlink/modlink/ir"
)

const sampleIndex = `
symbols:
  helper:
    - module: a.mir
      linkage: internal
  main:
    - module: a.mir
      linkage: external
  shared:
    - module: a.mir
      linkage: linkonce_odr
    - module: b.mir
      linkage: linkonce_odr
  scratch:
    - module: b.mir
      linkage: private
`

func TestParse(t *testing.T) {
	ix, err := Parse([]byte(sampleIndex))
	require.NoError(t, err)

	entries := ix.Lookup("helper")
	require.Len(t, entries, 1)
	assert.Equal(t, "a.mir", entries[0].Module)
	assert.Equal(t, ir.Internal, entries[0].Linkage)

	assert.Len(t, ix.Lookup("shared"), 2)
	assert.Nil(t, ix.Lookup("absent"))
}

func TestParseEmpty(t *testing.T) {
	ix, err := Parse(nil)
	require.NoError(t, err)
	require.NotNil(t, ix.Symbols)
	assert.Nil(t, ix.Lookup("anything"))
}

func TestParseUnknownLinkage(t *testing.T) {
	_, err := Parse([]byte("symbols:\n  x:\n    - module: a\n      linkage: sideways\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown linkage")
}

func TestPromoteLocals(t *testing.T) {
	ix, err := Parse([]byte(sampleIndex))
	require.NoError(t, err)

	changed := ix.PromoteLocals()
	assert.Equal(t, 2, changed, "helper (internal) and scratch (private)")

	assert.Equal(t, ir.External, ix.Lookup("helper")[0].Linkage)
	assert.Equal(t, ir.External, ix.Lookup("scratch")[0].Linkage)
	assert.Equal(t, ir.LinkOnceODR, ix.Lookup("shared")[0].Linkage, "non-local entries untouched")

	assert.Zero(t, ix.PromoteLocals(), "second pass changes nothing")
}

func TestRename(t *testing.T) {
	ix, err := Parse([]byte(sampleIndex))
	require.NoError(t, err)

	ix.Rename("helper", "helper.12345678")
	assert.Nil(t, ix.Lookup("helper"))
	require.Len(t, ix.Lookup("helper.12345678"), 1)

	// Renaming an unknown symbol is a no-op.
	ix.Rename("absent", "absent.x")
	assert.Nil(t, ix.Lookup("absent.x"))
}

func TestRenameModuleEntry(t *testing.T) {
	ix, err := Parse([]byte(sampleIndex))
	require.NoError(t, err)

	ix.RenameModuleEntry("shared", "a.mir", "shared.aaaaaaaa")

	want := map[string][]*Entry{
		"shared":          {{Module: "b.mir", Linkage: ir.LinkOnceODR}},
		"shared.aaaaaaaa": {{Module: "a.mir", Linkage: ir.LinkOnceODR}},
	}
	got := map[string][]*Entry{
		"shared":          ix.Lookup("shared"),
		"shared.aaaaaaaa": ix.Lookup("shared.aaaaaaaa"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	// Once a symbol's last entry moves, the old name disappears entirely.
	ix.RenameModuleEntry("helper", "a.mir", "helper.bbbbbbbb")
	assert.Nil(t, ix.Lookup("helper"))
	require.Len(t, ix.Lookup("helper.bbbbbbbb"), 1)
}

func TestPromotedName(t *testing.T) {
	a := PromotedName("helper", "a.mir")
	b := PromotedName("helper", "b.mir")

	assert.True(t, strings.HasPrefix(a, "helper."))
	assert.Len(t, a, len("helper.")+8)
	assert.NotEqual(t, a, b, "different donors produce different names")
	assert.Equal(t, a, PromotedName("helper", "a.mir"), "deterministic")
}
