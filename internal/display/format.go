package display

import (
	"fmt"
	"strings"

	"github.com/mzhou/focusfield/internal/analyzer"
)

// kindOrder fixes the section order when relations are grouped for display
var kindOrder = []analyzer.RelationKind{
	analyzer.RelationDefinition,
	analyzer.RelationModification,
	analyzer.RelationUsage,
	analyzer.RelationImport,
	analyzer.RelationExport,
	analyzer.RelationReference,
}

var kindLabels = map[analyzer.RelationKind]string{
	analyzer.RelationDefinition:   "Definitions",
	analyzer.RelationModification: "Modifications",
	analyzer.RelationUsage:        "Usages",
	analyzer.RelationImport:       "Imports",
	analyzer.RelationExport:       "Exports",
	analyzer.RelationReference:    "References",
}

// FormatText renders a focus context as a tree grouped by relation kind
func FormatText(ctx *analyzer.FocusContext) string {
	var sb strings.Builder

	t := ctx.Target
	sb.WriteString("📍 Target\n")
	sb.WriteString(fmt.Sprintf("%s (%s)  %s:%d:%d\n\n", t.Name, t.Kind, t.File, t.Line, t.Column))

	grouped := groupByKind(ctx.Relations)
	for _, kind := range kindOrder {
		relations := grouped[kind]
		if len(relations) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s (%d)\n", kindLabels[kind], len(relations)))
		for i, rel := range relations {
			prefix := "├──"
			if i == len(relations)-1 {
				prefix = "└──"
			}
			sb.WriteString(fmt.Sprintf("%s line %d, col %d  [%s]\n", prefix, rel.Line, rel.Column, rel.Severity))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Focus range: lines %d-%d (%d of %d lines)\n",
		ctx.Range.StartLine, ctx.Range.EndLine, ctx.Range.Size(), ctx.TotalLines))

	return sb.String()
}

// FormatMarkdown renders a focus context as a markdown report
func FormatMarkdown(ctx *analyzer.FocusContext) string {
	var sb strings.Builder

	t := ctx.Target
	sb.WriteString(fmt.Sprintf("## Focus field: %s\n\n", t.Name))
	sb.WriteString(fmt.Sprintf("**Kind:** %s\n\n", t.Kind))
	sb.WriteString(fmt.Sprintf("**Location:** %s:%d:%d\n\n", t.File, t.Line, t.Column))
	sb.WriteString(fmt.Sprintf("**Focus range:** lines %d-%d\n\n", ctx.Range.StartLine, ctx.Range.EndLine))

	sb.WriteString("| Relation | Line | Column | Severity |\n")
	sb.WriteString("|----------|------|--------|----------|\n")
	for _, rel := range ctx.Relations {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s |\n", rel.Kind, rel.Line, rel.Column, rel.Severity))
	}
	sb.WriteString("\n")

	return sb.String()
}

// FormatSummary renders the one-line-per-field summary view
func FormatSummary(s *analyzer.Summary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Target:    %s (%s)\n", s.TargetName, s.TargetKind))
	sb.WriteString(fmt.Sprintf("Relations: %d\n", s.RelationCount))
	for _, kind := range kindOrder {
		if count := s.KindCounts[kind]; count > 0 {
			sb.WriteString(fmt.Sprintf("  %-13s %d\n", string(kind)+":", count))
		}
	}
	sb.WriteString(fmt.Sprintf("Range:     %d lines\n", s.RangeSize))

	return sb.String()
}

// FormatWindow renders the focus window of the source with line numbers.
// Related lines get a marker; everything outside the range is elided, which
// mirrors what an editor does when it dims unrelated code.
func FormatWindow(source string, ctx *analyzer.FocusContext) string {
	lines := strings.Split(source, "\n")
	related := make(map[int]bool, len(ctx.RelatedLines))
	for _, l := range ctx.RelatedLines {
		related[l] = true
	}

	var sb strings.Builder
	if ctx.Range.StartLine > 1 {
		sb.WriteString(fmt.Sprintf("  ... %d lines above ...\n", ctx.Range.StartLine-1))
	}
	for n := ctx.Range.StartLine; n <= ctx.Range.EndLine && n <= len(lines); n++ {
		marker := " "
		if related[n] {
			marker = "▶"
		}
		sb.WriteString(fmt.Sprintf("%s %4d  %s\n", marker, n, strings.TrimSuffix(lines[n-1], "\r")))
	}
	if ctx.Range.EndLine < ctx.TotalLines {
		sb.WriteString(fmt.Sprintf("  ... %d lines below ...\n", ctx.TotalLines-ctx.Range.EndLine))
	}

	return sb.String()
}

func groupByKind(relations []*analyzer.RelationRecord) map[analyzer.RelationKind][]*analyzer.RelationRecord {
	grouped := make(map[analyzer.RelationKind][]*analyzer.RelationRecord)
	for _, rel := range relations {
		grouped[rel.Kind] = append(grouped[rel.Kind], rel)
	}
	return grouped
}
