package analyzer

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// EntityKind represents the kind of code element under the cursor
type EntityKind string

const (
	EntityKindVariable EntityKind = "variable"
	EntityKindFunction EntityKind = "function"
	EntityKindClass    EntityKind = "class"
	EntityKindImport   EntityKind = "import"
	EntityKindProperty EntityKind = "property"
	EntityKindMethod   EntityKind = "method"
)

// RelationKind represents how an occurrence relates to the target entity
type RelationKind string

const (
	RelationDefinition   RelationKind = "definition"
	RelationUsage        RelationKind = "usage"
	RelationModification RelationKind = "modification"
	RelationReference    RelationKind = "reference"
	RelationImport       RelationKind = "import"
	RelationExport       RelationKind = "export"
)

// Severity is a display-weighting tier attached to each relation
type Severity string

const (
	SeverityPrimary   Severity = "primary"
	SeveritySecondary Severity = "secondary"
	SeverityTertiary  Severity = "tertiary"
)

// EntityTarget is the code element found at a cursor position.
// Columns are 1-based; Column is inclusive, EndColumn exclusive.
type EntityTarget struct {
	ID        string     `json:"id"`
	Kind      EntityKind `json:"kind"`
	Name      string     `json:"name"`
	Line      int        `json:"line"`
	Column    int        `json:"column"`
	EndColumn int        `json:"end_column"`
	File      string     `json:"file"`
}

// RelationRecord is one occurrence in the source related to a target entity
type RelationRecord struct {
	ID          string       `json:"id"`
	Kind        RelationKind `json:"kind"`
	TargetID    string       `json:"target_id"`
	Line        int          `json:"line"`
	Column      int          `json:"column"`
	EndColumn   int          `json:"end_column"`
	Description string       `json:"description"`
	Severity    Severity     `json:"severity"`
}

// FocusRange is the contiguous line window containing all relations plus padding
type FocusRange struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Size returns the inclusive number of lines in the range
func (r FocusRange) Size() int {
	return r.EndLine - r.StartLine + 1
}

// FocusContext is the aggregate result of one analysis call.
// It is owned by the caller; the analyzer keeps no reference after returning it.
type FocusContext struct {
	Target       *EntityTarget     `json:"target"`
	Relations    []*RelationRecord `json:"relations"`
	RelatedLines []int             `json:"related_lines"`
	Range        FocusRange        `json:"range"`
	TotalLines   int               `json:"total_lines"`
}

// Summary is a read-only digest of a FocusContext for display and telemetry
type Summary struct {
	TargetName    string               `json:"target_name"`
	TargetKind    EntityKind           `json:"target_kind"`
	RelationCount int                  `json:"relation_count"`
	KindCounts    map[RelationKind]int `json:"kind_counts"`
	RangeSize     int                  `json:"range_size"`
}

// targetID derives a stable identifier from the target's location and kind.
// The same inputs always hash to the same ID.
func targetID(file string, line, column int, kind EntityKind) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%s:%d:%d:%s", file, line, column, kind)))
}

// relationID derives a stable identifier unique per (target, kind, line, column)
func relationID(targetID string, kind RelationKind, line, column int) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%s:%s:%d:%d", targetID, kind, line, column)))
}
