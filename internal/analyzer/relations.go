package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

// FindRelations scans every line of source for occurrences that define, use,
// modify, import, or export the target's name. The declaration site is always
// reported first as a definition regardless of what the line looks like now,
// then the per-line scanners run in order: usage, modification, import, export.
// No de-duplication happens between scanners; an assignment that is also a use
// legitimately shows up twice.
func FindRelations(source, file string, target *EntityTarget) []*RelationRecord {
	if target == nil || strings.TrimSpace(target.Name) == "" {
		return nil
	}

	name := regexp.QuoteMeta(target.Name)
	usageRe := regexp.MustCompile(`\b` + name + `\b`)
	// The trailing alternation keeps plain `=` from matching `==` and `=>`.
	// RE2 has no lookahead, so the guard consumes one extra character.
	modRe := regexp.MustCompile(`\b(` + name + `)\s*(?:(?:[+\-*/%&|^]|<<|>>>?)=|=(?:[^=>]|$))`)

	lines := splitLines(source)
	relations := []*RelationRecord{
		newRelation(target, RelationDefinition, target.Line, target.Column, target.EndColumn),
	}

	for i, line := range lines {
		lineNo := i + 1

		for _, m := range usageRe.FindAllStringIndex(line, -1) {
			relations = append(relations, newRelation(target, RelationUsage, lineNo, m[0]+1, m[1]+1))
		}

		for _, m := range modRe.FindAllStringSubmatchIndex(line, -1) {
			relations = append(relations, newRelation(target, RelationModification, lineNo, m[2]+1, m[3]+1))
		}

		if strings.Contains(line, "import") {
			if m := usageRe.FindStringIndex(line); m != nil {
				relations = append(relations, newRelation(target, RelationImport, lineNo, m[0]+1, m[1]+1))
			}
		}

		if strings.Contains(line, "export") {
			if m := usageRe.FindStringIndex(line); m != nil {
				relations = append(relations, newRelation(target, RelationExport, lineNo, m[0]+1, m[1]+1))
			}
		}
	}

	return relations
}

// newRelation builds a record with its derived ID, description and severity
func newRelation(target *EntityTarget, kind RelationKind, line, column, endColumn int) *RelationRecord {
	return &RelationRecord{
		ID:          relationID(target.ID, kind, line, column),
		Kind:        kind,
		TargetID:    target.ID,
		Line:        line,
		Column:      column,
		EndColumn:   endColumn,
		Description: fmt.Sprintf("%s of %s", describeKind(kind), target.Name),
		Severity:    severityFor(kind),
	}
}

// severityFor maps relation kinds to display tiers: definitions and
// modifications are primary, usages secondary, import/export tertiary
func severityFor(kind RelationKind) Severity {
	switch kind {
	case RelationDefinition, RelationModification:
		return SeverityPrimary
	case RelationUsage, RelationReference:
		return SeveritySecondary
	default:
		return SeverityTertiary
	}
}

func describeKind(kind RelationKind) string {
	switch kind {
	case RelationDefinition:
		return "Definition"
	case RelationUsage:
		return "Usage"
	case RelationModification:
		return "Modification"
	case RelationImport:
		return "Import"
	case RelationExport:
		return "Export"
	default:
		return "Reference"
	}
}
