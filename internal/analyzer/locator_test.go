package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateEntity(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		line    int
		column  int
		want    *EntityTarget
		notHere bool
	}{
		{
			name:   "const declaration",
			source: "const x = 1;",
			line:   1, column: 7,
			want: &EntityTarget{Kind: EntityKindVariable, Name: "x", Line: 1, Column: 7, EndColumn: 8},
		},
		{
			name:   "cursor at exclusive end column still matches",
			source: "const x = 1;",
			line:   1, column: 8,
			want: &EntityTarget{Kind: EntityKindVariable, Name: "x", Line: 1, Column: 7, EndColumn: 8},
		},
		{
			name:   "let declaration",
			source: "let counter = 0;",
			line:   1, column: 5,
			want: &EntityTarget{Kind: EntityKindVariable, Name: "counter", Line: 1, Column: 5, EndColumn: 12},
		},
		{
			name:   "function declaration",
			source: "function foo() {}",
			line:   1, column: 10,
			want: &EntityTarget{Kind: EntityKindFunction, Name: "foo", Line: 1, Column: 10, EndColumn: 13},
		},
		{
			name:   "arrow function assignment",
			source: "handler = (req) => req.body",
			line:   1, column: 3,
			want: &EntityTarget{Kind: EntityKindFunction, Name: "handler", Line: 1, Column: 1, EndColumn: 8},
		},
		{
			name:   "variable matcher outranks arrow matcher on const arrow",
			source: "const add = (a, b) => a + b",
			line:   1, column: 7,
			want: &EntityTarget{Kind: EntityKindVariable, Name: "add", Line: 1, Column: 7, EndColumn: 10},
		},
		{
			name:   "class declaration",
			source: "class Foo {}",
			line:   1, column: 7,
			want: &EntityTarget{Kind: EntityKindClass, Name: "Foo", Line: 1, Column: 7, EndColumn: 10},
		},
		{
			name:   "named import",
			source: `import { parse } from "lib";`,
			line:   1, column: 10,
			want: &EntityTarget{Kind: EntityKindImport, Name: "parse", Line: 1, Column: 10, EndColumn: 15},
		},
		{
			name:   "method call",
			source: "obj.render()",
			line:   1, column: 6,
			want: &EntityTarget{Kind: EntityKindMethod, Name: "render", Line: 1, Column: 5, EndColumn: 11},
		},
		{
			name:   "property assignment",
			source: "config.timeout = 500",
			line:   1, column: 9,
			want: &EntityTarget{Kind: EntityKindProperty, Name: "timeout", Line: 1, Column: 8, EndColumn: 15},
		},
		{
			name:   "second declaration on a multi-line file",
			source: "const a = 1;\nconst b = 2;",
			line:   2, column: 7,
			want: &EntityTarget{Kind: EntityKindVariable, Name: "b", Line: 2, Column: 7, EndColumn: 8},
		},
		{
			name:   "cursor on keyword, not the identifier",
			source: "const x = 1;",
			line:   1, column: 3,
			notHere: true,
		},
		{
			name:   "cursor past every span",
			source: "const x = 1;",
			line:   1, column: 20,
			notHere: true,
		},
		{
			name:   "line out of range",
			source: "const x = 1;",
			line:   5, column: 1,
			notHere: true,
		},
		{
			name:   "empty source",
			source: "",
			line:   1, column: 1,
			notHere: true,
		},
		{
			name:   "non-positive column",
			source: "const x = 1;",
			line:   1, column: 0,
			notHere: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocateEntity(tt.source, "app.js", tt.line, tt.column)
			if tt.notHere {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.Line, got.Line)
			assert.Equal(t, tt.want.Column, got.Column)
			assert.Equal(t, tt.want.EndColumn, got.EndColumn)
			assert.Equal(t, "app.js", got.File)
			assert.NotEmpty(t, got.ID)
		})
	}
}

func TestLocateEntityStableID(t *testing.T) {
	a := LocateEntity("const x = 1;", "app.js", 1, 7)
	b := LocateEntity("const x = 1;", "app.js", 1, 7)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.ID, b.ID)

	// Different file yields a different ID for the same position
	c := LocateEntity("const x = 1;", "other.js", 1, 7)
	require.NotNil(t, c)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestLocateEntityMultipleDeclarationsOnOneLine(t *testing.T) {
	source := "const a = 1; const b = 2;"

	a := LocateEntity(source, "app.js", 1, 7)
	require.NotNil(t, a)
	assert.Equal(t, "a", a.Name)

	b := LocateEntity(source, "app.js", 1, 20)
	require.NotNil(t, b)
	assert.Equal(t, "b", b.Name)
	assert.Equal(t, 20, b.Column)
	assert.Equal(t, 21, b.EndColumn)
}
