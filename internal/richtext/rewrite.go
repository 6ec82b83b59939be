package richtext

import (
	"sort"
	"strings"
)

// Span addresses a byte range of a tree's plain-text projection. Node is the
// replacement used by ReplaceSpans and ignored by MapSpans.
type Span struct {
	Start int
	End   int
	Node  Node
}

// FindLiteral returns the non-overlapping occurrences of literal in plain,
// leftmost first.
func FindLiteral(plain, literal string) []Span {
	if literal == "" {
		return nil
	}
	var spans []Span
	for offset := 0; offset < len(plain); {
		idx := strings.Index(plain[offset:], literal)
		if idx < 0 {
			break
		}
		start := offset + idx
		spans = append(spans, Span{Start: start, End: start + len(literal)})
		offset = start + len(literal)
	}
	return spans
}

// Resolve sorts spans leftmost-first, prefers the longer span when two start
// at the same offset, and drops empty spans and spans overlapping an earlier
// one.
func Resolve(spans []Span) []Span {
	items := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.End > s.Start && s.Start >= 0 {
			items = append(items, s)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Start != items[j].Start {
			return items[i].Start < items[j].Start
		}
		return items[i].End > items[j].End
	})
	out := items[:0]
	end := -1
	for _, s := range items {
		if s.Start < end {
			continue
		}
		out = append(out, s)
		end = s.End
	}
	return out
}

// ReplaceSpans returns a new tree in which every span of the plain-text
// projection is replaced by its Node. Spans must come from the projection of
// n and be resolved (see Resolve). Text outside the spans keeps its style,
// hover and click; a span crossing run boundaries is emitted once, where it
// starts.
func ReplaceSpans(n Node, spans []Span) Node {
	if len(spans) == 0 {
		return n
	}
	w := &rewriter{spans: spans}
	return w.node(n)
}

// MapSpans returns a new tree in which every fragment of text covered by a
// span is replaced by fn(fragment). The fragment node carries only text, so
// it inherits the surrounding style, hover and click unless fn overrides
// them.
func MapSpans(n Node, spans []Span, fn func(Node) Node) Node {
	if len(spans) == 0 || fn == nil {
		return n
	}
	w := &rewriter{spans: spans, mapFn: fn}
	return w.node(n)
}

type rewriter struct {
	spans []Span
	next  int
	pos   int
	mapFn func(Node) Node
}

func (w *rewriter) node(n Node) Node {
	start := w.pos
	end := start + len(n.Text)
	w.pos = end

	for w.next < len(w.spans) && w.spans[w.next].End <= start {
		w.next++
	}
	split := n.Text != "" && w.next < len(w.spans) && w.spans[w.next].Start < end

	var pieces []Node
	if split {
		pieces = w.cut(n.Text, start, end)
	}

	children := make([]Node, 0, len(pieces)+len(n.Children))
	children = append(children, pieces...)
	for _, child := range n.Children {
		children = append(children, w.node(child))
	}

	out := Node{
		Style: n.Style,
		Hover: n.Hover,
		Click: n.Click,
	}
	if !split {
		out.Text = n.Text
	}
	if len(children) > 0 {
		out.Children = children
	}
	return out
}

func (w *rewriter) cut(text string, start, end int) []Node {
	var pieces []Node
	cursor := start
	for i := w.next; i < len(w.spans) && w.spans[i].Start < end; i++ {
		s := w.spans[i]
		if s.Start > cursor {
			pieces = append(pieces, Text(text[cursor-start:s.Start-start]))
			cursor = s.Start
		}
		segEnd := min(s.End, end)
		if w.mapFn != nil {
			pieces = append(pieces, w.mapFn(Text(text[cursor-start:segEnd-start])))
		} else if s.Start >= start {
			pieces = append(pieces, s.Node)
		}
		cursor = segEnd
	}
	if cursor < end {
		pieces = append(pieces, Text(text[cursor-start:]))
	}
	return pieces
}
