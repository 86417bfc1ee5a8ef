package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relKey struct {
	kind RelationKind
	line int
}

func relKeys(relations []*RelationRecord) []relKey {
	keys := make([]relKey, 0, len(relations))
	for _, r := range relations {
		keys = append(keys, relKey{r.Kind, r.Line})
	}
	return keys
}

func TestFindRelationsVariable(t *testing.T) {
	source := "const x = 1;\nconsole.log(x);\nx = 2;"
	target := LocateEntity(source, "app.js", 1, 7)
	require.NotNil(t, target)

	relations := FindRelations(source, "app.js", target)

	// Definition pass first, then per-line usage/modification scans. The
	// declaration line reports both a usage and a modification because
	// `x = 1` is an assignment too.
	assert.Equal(t, []relKey{
		{RelationDefinition, 1},
		{RelationUsage, 1},
		{RelationModification, 1},
		{RelationUsage, 2},
		{RelationUsage, 3},
		{RelationModification, 3},
	}, relKeys(relations))

	for _, r := range relations {
		assert.Equal(t, target.ID, r.TargetID)
	}

	// Column spans of the usage on line 2 point at the bare identifier
	assert.Equal(t, 13, relations[3].Column)
	assert.Equal(t, 14, relations[3].EndColumn)
}

func TestFindRelationsFunctionWithCommentFalsePositive(t *testing.T) {
	source := "function foo() {}\n// calls foo elsewhere\nfoo();"
	target := LocateEntity(source, "app.js", 1, 10)
	require.NotNil(t, target)

	relations := FindRelations(source, "app.js", target)

	// The comment on line 2 is matched too; textual scanning does not
	// exclude comments or strings.
	assert.Equal(t, []relKey{
		{RelationDefinition, 1},
		{RelationUsage, 1},
		{RelationUsage, 2},
		{RelationUsage, 3},
	}, relKeys(relations))
}

func TestFindRelationsDefinitionSiteAlwaysReported(t *testing.T) {
	// The target's own line no longer contains the name at all, but the
	// declaration site is still guaranteed a definition record.
	target := &EntityTarget{
		ID:     targetID("app.js", 2, 1, EntityKindVariable),
		Kind:   EntityKindVariable,
		Name:   "ghost",
		Line:   2,
		Column: 1, EndColumn: 6,
		File: "app.js",
	}

	relations := FindRelations("const a = 1;\nconst b = 2;", "app.js", target)
	require.NotEmpty(t, relations)
	assert.Equal(t, RelationDefinition, relations[0].Kind)
	assert.Equal(t, 2, relations[0].Line)
	assert.Len(t, relations, 1)
}

func TestFindRelationsImportExport(t *testing.T) {
	source := "import { fmtDate } from \"./dates\";\nexport { fmtDate };\nfmtDate();"
	target := LocateEntity(source, "app.js", 1, 10)
	require.NotNil(t, target)
	assert.Equal(t, EntityKindImport, target.Kind)

	relations := FindRelations(source, "app.js", target)

	assert.Equal(t, []relKey{
		{RelationDefinition, 1},
		{RelationUsage, 1},
		{RelationImport, 1},
		{RelationUsage, 2},
		{RelationExport, 2},
		{RelationUsage, 3},
	}, relKeys(relations))
}

func TestFindRelationsMultipleUsagesOneLine(t *testing.T) {
	source := "let sum = 1;\nsum = sum + sum;"
	target := LocateEntity(source, "app.js", 1, 5)
	require.NotNil(t, target)

	relations := FindRelations(source, "app.js", target)

	var line2Usages []*RelationRecord
	for _, r := range relations {
		if r.Kind == RelationUsage && r.Line == 2 {
			line2Usages = append(line2Usages, r)
		}
	}
	require.Len(t, line2Usages, 3)
	assert.Equal(t, 1, line2Usages[0].Column)
	assert.Equal(t, 7, line2Usages[1].Column)
	assert.Equal(t, 13, line2Usages[2].Column)
}

func TestFindRelationsCompoundAssignment(t *testing.T) {
	source := "let n = 0;\nn += 5;\nn *= 2;\nif (n == 10) {}\nconst f = n => n;"
	target := LocateEntity(source, "app.js", 1, 5)
	require.NotNil(t, target)

	var modLines []int
	for _, r := range FindRelations(source, "app.js", target) {
		if r.Kind == RelationModification {
			modLines = append(modLines, r.Line)
		}
	}

	// `==` on line 4 and `=>` on line 5 are not assignments
	assert.Equal(t, []int{1, 2, 3}, modLines)
}

func TestFindRelationsSeverities(t *testing.T) {
	source := "import { q } from \"db\";\nlet q = 0;\nq = 1;\nq;"
	target := &EntityTarget{
		ID:   targetID("app.js", 2, 5, EntityKindVariable),
		Kind: EntityKindVariable, Name: "q",
		Line: 2, Column: 5, EndColumn: 6, File: "app.js",
	}

	for _, r := range FindRelations(source, "app.js", target) {
		switch r.Kind {
		case RelationDefinition, RelationModification:
			assert.Equal(t, SeverityPrimary, r.Severity, "kind %s", r.Kind)
		case RelationUsage:
			assert.Equal(t, SeveritySecondary, r.Severity)
		case RelationImport, RelationExport:
			assert.Equal(t, SeverityTertiary, r.Severity, "kind %s", r.Kind)
		}
	}
}

func TestFindRelationsEmptyName(t *testing.T) {
	target := &EntityTarget{Name: "", Line: 1}
	assert.Nil(t, FindRelations("const x = 1;", "app.js", target))

	target.Name = "   "
	assert.Nil(t, FindRelations("const x = 1;", "app.js", target))

	assert.Nil(t, FindRelations("const x = 1;", "app.js", nil))
}

func TestFindRelationsDeterministic(t *testing.T) {
	source := "const x = 1;\nx = 2;"
	target := LocateEntity(source, "app.js", 1, 7)
	require.NotNil(t, target)

	a := FindRelations(source, "app.js", target)
	b := FindRelations(source, "app.js", target)
	assert.Equal(t, a, b)
}
