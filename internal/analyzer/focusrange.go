package analyzer

import "sort"

// rangePadding is the context margin kept on each side of the focus window so
// single-line targets still show their surroundings
const rangePadding = 2

// SynthesizeRange collapses relation lines into a distinct sorted set and
// derives the padded focus window, clamped into [1, totalLines]. An empty
// relation set falls back to the full document: nothing to focus on means
// nothing gets hidden.
func SynthesizeRange(relations []*RelationRecord, totalLines int) ([]int, FocusRange) {
	seen := make(map[int]struct{})
	for _, rel := range relations {
		if rel.Line >= 1 && rel.Line <= totalLines {
			seen[rel.Line] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, FocusRange{StartLine: 1, EndLine: totalLines}
	}

	lines := make([]int, 0, len(seen))
	for l := range seen {
		lines = append(lines, l)
	}
	sort.Ints(lines)

	return lines, FocusRange{
		StartLine: clamp(lines[0]-rangePadding, 1, totalLines),
		EndLine:   clamp(lines[len(lines)-1]+rangePadding, 1, totalLines),
	}
}

// Summarize reports the target, the relation counts broken down by kind, and
// the inclusive focus window size. Computed on demand, never cached.
func Summarize(ctx *FocusContext) *Summary {
	if ctx == nil {
		return nil
	}

	counts := make(map[RelationKind]int)
	for _, rel := range ctx.Relations {
		counts[rel.Kind]++
	}

	return &Summary{
		TargetName:    ctx.Target.Name,
		TargetKind:    ctx.Target.Kind,
		RelationCount: len(ctx.Relations),
		KindCounts:    counts,
		RangeSize:     ctx.Range.Size(),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
