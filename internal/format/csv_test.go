package format

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amolyst/amolyst/internal/state"
)

func TestWriteTable_Golden(t *testing.T) {
	store := state.NewMemoryProcessorStore()
	require.NoError(t, store.Merge("amo.addon", "a1", map[string]any{
		"basemeta.name":      "Tab, Closer",
		"validator.errors":   float64(2),
		"validator.requires": "jquery.js;zepto.js",
	}))
	// Sparse record: untouched columns must render empty.
	require.NoError(t, store.Merge("amo.addon", "a2", map[string]any{
		"basemeta.name": "Plain",
	}))

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, store.FieldNames("amo.addon"), store.All()["amo.addon"]))

	g := goldie.New(t)
	g.Assert(t, "addon_table", buf.Bytes())
}

func TestWriteTable_SortedColumnsAndRows(t *testing.T) {
	store := state.NewMemoryProcessorStore()
	require.NoError(t, store.Merge("ns", "b", map[string]any{"z.col": "1", "a.col": "2"}))
	require.NoError(t, store.Merge("ns", "a", map[string]any{"m.col": "3"}))

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, store.FieldNames("ns"), store.All()["ns"]))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a.col,m.col,z.col", lines[0])
	assert.Equal(t, ",3,", lines[1], "record a first, only m.col set")
	assert.Equal(t, "2,,1", lines[2])
}

func TestWriteTable_EmptyNamespace(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, nil, nil))
	assert.Equal(t, "\n", buf.String(), "just an empty header line")
}

func TestCSVFormatter_OneFilePerNamespace(t *testing.T) {
	store := state.NewMemoryProcessorStore()
	require.NoError(t, store.Merge("amo.addon", "a1", map[string]any{"basemeta.name": "X"}))
	require.NoError(t, store.Merge("amo.user", "7", map[string]any{"basemeta.username": "jo"}))
	require.NoError(t, store.Merge("amo.addon--amo.user", "1-7", map[string]any{
		"amo.addon": "1",
		"amo.user":  "7",
	}))

	dir := t.TempDir()
	f := &CSVFormatter{Store: store, BaseDir: dir}
	require.NoError(t, f.Write(context.Background()))

	for _, name := range []string{"amo.addon.csv", "amo.user.csv", "amo.addon--amo.user.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected %s", name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "amo.addon--amo.user.csv"))
	require.NoError(t, err)
	assert.Equal(t, "amo.addon,amo.user\n1,7\n", string(raw))
}

func TestCSVFormatter_MissingBaseDirIsFatal(t *testing.T) {
	store := state.NewMemoryProcessorStore()
	require.NoError(t, store.Merge("ns", "a", map[string]any{"c": "1"}))

	f := &CSVFormatter{Store: store, BaseDir: filepath.Join(t.TempDir(), "absent")}
	require.Error(t, f.Write(context.Background()))
}

func TestRenderValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"integral float", float64(7), "7"},
		{"fractional float", 2.5, "2.5"},
		{"int64", int64(42), "42"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderValue(tt.in))
		})
	}
}
