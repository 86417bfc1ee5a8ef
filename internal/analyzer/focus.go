// Package analyzer computes the focus field for a cursor position in a single
// source file: the named entity under the cursor, every line that defines,
// uses, modifies, imports, or exports it, and a padded contiguous line window
// covering all of them.
//
// The analysis is deliberately textual. There is no AST, no tokenizer, and no
// scope resolution; matches inside strings and comments are reported like any
// other. That keeps a full analysis to one pass over the file, which is what
// an editor needs between keystrokes, at the cost of occasional false
// positives on shadowed or quoted names.
//
// Every function here is a pure function of its arguments with no shared
// state, so concurrent calls need no coordination.
package analyzer

// CreateFocusField is the single analysis entry point. It locates the entity
// at the 1-based (line, column) cursor, finds all of its relations, and
// synthesizes the focus range. It returns nil when the cursor is not on a
// recognizable entity, when the source is empty, or when the position is out
// of range; callers should treat nil as "nothing to focus", not a failure.
func CreateFocusField(source, file string, line, column int) *FocusContext {
	target := LocateEntity(source, file, line, column)
	if target == nil {
		return nil
	}

	totalLines := len(splitLines(source))
	relations := FindRelations(source, file, target)
	relatedLines, focusRange := SynthesizeRange(relations, totalLines)

	return &FocusContext{
		Target:       target,
		Relations:    relations,
		RelatedLines: relatedLines,
		Range:        focusRange,
		TotalLines:   totalLines,
	}
}
