package export

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzhou/focusfield/internal/analyzer"
	"github.com/mzhou/focusfield/internal/storage"
)

func seededDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := analyzer.CreateFocusField("const x = 1;\nconsole.log(x);\nx = 2;", "src/app.js", 1, 7)
	require.NotNil(t, ctx)
	_, err = db.RecordAnalysis(ctx, 1, 7)
	require.NoError(t, err)

	return db
}

func TestExport(t *testing.T) {
	db := seededDB(t)

	var sb strings.Builder
	err := NewExporter(db).Export(&sb, DefaultExportOptions())
	require.NoError(t, err)
	out := sb.String()

	assert.Contains(t, out, "# Project focus history")
	assert.Contains(t, out, "Analyses: 1")
	assert.Contains(t, out, "## src/app.js")
	assert.Contains(t, out, "| x | variable | 1:7 |")
	assert.Contains(t, out, "### Latest: x")
	assert.Contains(t, out, "| definition | 1 | 7 | primary |")
	assert.Contains(t, out, "```mermaid")
}

func TestExportWithoutMermaid(t *testing.T) {
	db := seededDB(t)

	opts := DefaultExportOptions()
	opts.IncludeMermaid = false

	var sb strings.Builder
	require.NoError(t, NewExporter(db).Export(&sb, opts))
	assert.NotContains(t, sb.String(), "mermaid")
}

func TestExportEmptyHistory(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer db.Close()

	var sb strings.Builder
	require.NoError(t, NewExporter(db).Export(&sb, DefaultExportOptions()))
	assert.Contains(t, sb.String(), "Analyses: 0")
}
