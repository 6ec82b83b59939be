// Package richtext models chat output as a tree of styled text runs with
// optional hover payloads and click actions.
package richtext

import (
	"slices"
	"strings"
)

// Decoration is a tri-state text decoration. Unset inherits from the parent.
type Decoration uint8

const (
	DecorationUnset Decoration = iota
	DecorationOn
	DecorationOff
)

func (d Decoration) over(parent Decoration) Decoration {
	if d == DecorationUnset {
		return parent
	}
	return d
}

// Enabled reports whether the decoration resolves to on.
func (d Decoration) Enabled() bool { return d == DecorationOn }

// Style carries color and decorations of a node. Zero fields inherit.
type Style struct {
	Color         string
	Bold          Decoration
	Italic        Decoration
	Underlined    Decoration
	Strikethrough Decoration
	Obfuscated    Decoration
}

// IsZero reports whether the style sets nothing.
func (s Style) IsZero() bool { return s == Style{} }

// Over layers s on top of parent and returns the resolved style.
func (s Style) Over(parent Style) Style {
	out := Style{
		Color:         parent.Color,
		Bold:          s.Bold.over(parent.Bold),
		Italic:        s.Italic.over(parent.Italic),
		Underlined:    s.Underlined.over(parent.Underlined),
		Strikethrough: s.Strikethrough.over(parent.Strikethrough),
		Obfuscated:    s.Obfuscated.over(parent.Obfuscated),
	}
	if s.Color != "" {
		out.Color = s.Color
	}
	return out
}

// ClickKind is the closed set of client-side click actions.
type ClickKind string

const (
	ClickOpenURL         ClickKind = "open_url"
	ClickRunCommand      ClickKind = "run_command"
	ClickSuggestCommand  ClickKind = "suggest_command"
	ClickCopyToClipboard ClickKind = "copy_to_clipboard"
)

// ParseClickKind resolves a click action name. Matching is case-insensitive.
func ParseClickKind(raw string) (ClickKind, bool) {
	switch ClickKind(strings.ToLower(strings.TrimSpace(raw))) {
	case ClickOpenURL:
		return ClickOpenURL, true
	case ClickRunCommand:
		return ClickRunCommand, true
	case ClickSuggestCommand:
		return ClickSuggestCommand, true
	case ClickCopyToClipboard:
		return ClickCopyToClipboard, true
	}
	return "", false
}

// ClickAction is attached to a node and fires when its text is clicked.
type ClickAction struct {
	Kind  ClickKind
	Value string
}

// Node is one element of a rich text tree. Style, Hover and Click are
// inherited by children that do not set their own. Nodes are treated as
// immutable values: every helper returns a new node.
type Node struct {
	Text     string
	Style    Style
	Hover    *Node
	Click    *ClickAction
	Children []Node
}

// Text returns an unstyled text node.
func Text(s string) Node { return Node{Text: s} }

// Styled returns a text node with the given style.
func Styled(s string, style Style) Node { return Node{Text: s, Style: style} }

// Join wraps nodes into an unstyled container.
func Join(nodes ...Node) Node {
	return Node{Children: slices.Clone(nodes)}
}

// Append returns a copy of n with children appended.
func (n Node) Append(children ...Node) Node {
	out := n
	out.Children = append(slices.Clone(n.Children), children...)
	return out
}

// WithHover returns a copy of n carrying the hover payload.
func (n Node) WithHover(hover Node) Node {
	out := n
	out.Hover = &hover
	return out
}

// WithClick returns a copy of n carrying the click action.
func (n Node) WithClick(click ClickAction) Node {
	out := n
	out.Click = &click
	return out
}

// PlainText is the concatenation of all run texts in tree order. Hover
// payloads are not part of the projection.
func (n Node) PlainText() string {
	var b strings.Builder
	n.writePlain(&b)
	return b.String()
}

func (n Node) writePlain(b *strings.Builder) {
	b.WriteString(n.Text)
	for _, child := range n.Children {
		child.writePlain(b)
	}
}

// IsEmpty reports whether the tree has no text at all.
func (n Node) IsEmpty() bool {
	if n.Text != "" {
		return false
	}
	for _, child := range n.Children {
		if !child.IsEmpty() {
			return false
		}
	}
	return true
}

// Run is a single text run with inherited attributes resolved.
type Run struct {
	Text  string
	Style Style
	Hover *Node
	Click *ClickAction
}

// Runs flattens the tree into resolved runs, skipping empty text.
func (n Node) Runs() []Run {
	var runs []Run
	n.collect(Run{}, &runs)
	return runs
}

func (n Node) collect(parent Run, runs *[]Run) {
	cur := Run{
		Style: n.Style.Over(parent.Style),
		Hover: parent.Hover,
		Click: parent.Click,
	}
	if n.Hover != nil {
		cur.Hover = n.Hover
	}
	if n.Click != nil {
		cur.Click = n.Click
	}
	if n.Text != "" {
		run := cur
		run.Text = n.Text
		*runs = append(*runs, run)
	}
	for _, child := range n.Children {
		child.collect(cur, runs)
	}
}
