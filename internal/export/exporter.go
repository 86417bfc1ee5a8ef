package export

import (
	"fmt"
	"io"
	"time"

	"github.com/mzhou/focusfield/internal/storage"
)

// Exporter generates a markdown report from the recorded analysis history
type Exporter struct {
	db *storage.DB
}

// NewExporter creates a new exporter
func NewExporter(db *storage.DB) *Exporter {
	return &Exporter{db: db}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	IncludeMermaid   bool
	IncludeRelations bool
	ProjectName      string
}

// DefaultExportOptions returns default export options
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludeMermaid:   true,
		IncludeRelations: true,
		ProjectName:      "Project",
	}
}

// Export writes the complete focus history report
func (e *Exporter) Export(w io.Writer, opts ExportOptions) error {
	files, err := e.db.GetDistinctFiles()
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	analysisCount, relationCount, _ := e.db.GetStats()

	// Header
	fmt.Fprintf(w, "# %s focus history\n\n", opts.ProjectName)
	fmt.Fprintf(w, "> Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "> Analyses: %d | Relations: %d | Files: %d\n\n", analysisCount, relationCount, len(files))

	for _, file := range files {
		if err := e.writeFileSection(w, file, opts); err != nil {
			return err
		}
	}

	return nil
}

// ExportFile writes the report section for a single file
func (e *Exporter) ExportFile(w io.Writer, file string, opts ExportOptions) error {
	return e.writeFileSection(w, file, opts)
}

func (e *Exporter) writeFileSection(w io.Writer, file string, opts ExportOptions) error {
	analyses, err := e.db.FindAnalysesByFile(file, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch analyses for %s: %w", file, err)
	}
	if len(analyses) == 0 {
		return nil
	}

	fmt.Fprintf(w, "## %s\n\n", file)
	fmt.Fprintf(w, "| Target | Kind | Cursor | Relations | Focus range | Recorded |\n")
	fmt.Fprintf(w, "|--------|------|--------|-----------|-------------|----------|\n")
	for _, a := range analyses {
		fmt.Fprintf(w, "| %s | %s | %d:%d | %d | %d-%d | %s |\n",
			a.TargetName, a.TargetKind, a.Line, a.Column,
			a.RelationCount, a.StartLine, a.EndLine, a.CreatedAt)
	}
	fmt.Fprintf(w, "\n")

	// Latest analysis gets the detailed treatment
	latest := analyses[0]

	if opts.IncludeRelations {
		relations, err := e.db.GetRelations(latest.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch relations: %w", err)
		}
		fmt.Fprintf(w, "### Latest: %s\n\n", latest.TargetName)
		fmt.Fprintf(w, "| Relation | Line | Column | Severity |\n")
		fmt.Fprintf(w, "|----------|------|--------|----------|\n")
		for _, rel := range relations {
			fmt.Fprintf(w, "| %s | %d | %d | %s |\n", rel.Kind, rel.Line, rel.Column, rel.Severity)
		}
		fmt.Fprintf(w, "\n")
	}

	if opts.IncludeMermaid {
		e.writeFocusMap(w, latest)
	}

	return nil
}

// writeFocusMap renders the focus window of the latest analysis as a mermaid
// flowchart: the target in the middle, related lines around it
func (e *Exporter) writeFocusMap(w io.Writer, a *storage.Analysis) {
	relations, err := e.db.GetRelations(a.ID)
	if err != nil || len(relations) == 0 {
		return
	}

	fmt.Fprintf(w, "```mermaid\nflowchart TD\n")
	fmt.Fprintf(w, "    T[\"%s (%s)\"]\n", a.TargetName, a.TargetKind)
	seen := make(map[string]bool)
	for _, rel := range relations {
		node := fmt.Sprintf("L%d_%s", rel.Line, rel.Kind)
		if seen[node] {
			continue
		}
		seen[node] = true
		fmt.Fprintf(w, "    T --> %s[\"line %d: %s\"]\n", node, rel.Line, rel.Kind)
	}
	fmt.Fprintf(w, "```\n\n")
}
