package analyzer

import (
	"regexp"
	"strings"
)

// span is a matched identifier on a single line.
// start/end are 0-based byte offsets, end exclusive.
type span struct {
	name  string
	start int
	end   int
}

// entityMatcher finds every candidate identifier of one kind on a line
type entityMatcher struct {
	kind EntityKind
	find func(line string) []span
}

var (
	variableRe = regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	functionRe = regexp.MustCompile(`\bfunction\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	arrowRe    = regexp.MustCompile(`([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s+)?\([^)]*\)\s*=>`)
	classRe    = regexp.MustCompile(`\bclass\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	methodRe   = regexp.MustCompile(`\.([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)
	propRe     = regexp.MustCompile(`\.([A-Za-z_$][A-Za-z0-9_$]*)\s*=(?:[^=>]|$)`)
	identRe    = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)
)

// importKeywords are tokens on an import line that are never the imported name
var importKeywords = map[string]bool{
	"import": true, "from": true, "as": true, "default": true, "type": true,
}

// matchers is the locator's dispatch table. Order is the tie-break policy:
// declaration forms are tried before the looser call and property patterns,
// so a `const`-declared name wins over a property-looking match on the same text.
var matchers = []entityMatcher{
	{EntityKindVariable, regexSpans(variableRe)},
	{EntityKindFunction, functionSpans},
	{EntityKindClass, regexSpans(classRe)},
	{EntityKindImport, importSpans},
	{EntityKindMethod, regexSpans(methodRe)},
	{EntityKindProperty, regexSpans(propRe)},
}

// regexSpans adapts a regexp with a single name capture group into a span finder
func regexSpans(re *regexp.Regexp) func(string) []span {
	return func(line string) []span {
		var spans []span
		for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
			if m[2] < 0 {
				continue
			}
			spans = append(spans, span{name: line[m[2]:m[3]], start: m[2], end: m[3]})
		}
		return spans
	}
}

// functionSpans matches `function name(...)` declarations and
// `name = (...) =>` arrow assignments
func functionSpans(line string) []span {
	spans := regexSpans(functionRe)(line)
	return append(spans, regexSpans(arrowRe)(line)...)
}

// importSpans matches every imported identifier on a line containing `import`.
// Quoted module paths are matched too; this is a known over-inclusion.
func importSpans(line string) []span {
	if !strings.Contains(line, "import") {
		return nil
	}
	var spans []span
	for _, m := range identRe.FindAllStringIndex(line, -1) {
		name := line[m[0]:m[1]]
		if importKeywords[name] {
			continue
		}
		spans = append(spans, span{name: name, start: m[0], end: m[1]})
	}
	return spans
}

// LocateEntity identifies the named entity at a 1-based (line, column) cursor
// position. Matchers run in priority order against the target line only; the
// first one whose span contains the column wins. A nil result means the cursor
// is not on anything the analyzer recognizes, which is an expected outcome,
// not an error.
func LocateEntity(source, file string, line, column int) *EntityTarget {
	if source == "" || line < 1 || column < 1 {
		return nil
	}

	lines := splitLines(source)
	if line > len(lines) {
		return nil
	}
	text := lines[line-1]

	for _, m := range matchers {
		for _, sp := range m.find(text) {
			startCol := sp.start + 1
			endCol := sp.end + 1
			// Containment is inclusive of the exclusive end column so a
			// cursor sitting just after the identifier still counts.
			if column >= startCol && column <= endCol {
				return &EntityTarget{
					ID:        targetID(file, line, startCol, m.kind),
					Kind:      m.kind,
					Name:      sp.name,
					Line:      line,
					Column:    startCol,
					EndColumn: endCol,
					File:      file,
				}
			}
		}
	}

	return nil
}

// splitLines splits source text into lines, tolerating CRLF endings
func splitLines(source string) []string {
	lines := strings.Split(source, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
