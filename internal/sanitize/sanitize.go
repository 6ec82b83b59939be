// Package sanitize converts legacy '&' color/format markers to canonical tag
// markup and removes markup an author is not allowed to use.
package sanitize

import (
	"strings"

	"github.com/memohai/chatmanager/internal/capability"
	"github.com/memohai/chatmanager/internal/richtext"
)

var legacyColors = map[byte]string{
	'0': "black",
	'1': "dark_blue",
	'2': "dark_green",
	'3': "dark_aqua",
	'4': "dark_red",
	'5': "dark_purple",
	'6': "gold",
	'7': "gray",
	'8': "dark_gray",
	'9': "blue",
	'a': "green",
	'b': "aqua",
	'c': "red",
	'd': "light_purple",
	'e': "yellow",
	'f': "white",
}

var legacyFormats = map[byte]string{
	'l': "bold",
	'o': "italic",
	'n': "underlined",
	'm': "strikethrough",
	'k': "obfuscated",
	'r': "reset",
}

// LegacyTag returns the canonical tag name for a legacy marker code.
func LegacyTag(code byte) (string, bool) {
	code = lower(code)
	if name, ok := legacyColors[code]; ok {
		return name, true
	}
	name, ok := legacyFormats[code]
	return name, ok
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isColorCode(c byte) bool {
	_, ok := legacyColors[lower(c)]
	return ok
}

func isMarkerCode(c byte) bool {
	_, ok := LegacyTag(c)
	return ok
}

// policy describes what survives for one capability set.
type policy struct {
	translateAll bool
	keepAllTags  bool
	keepTags     map[string]bool
	colors       bool
	bold         bool
	italic       bool
}

func policyFor(caps capability.Set) policy {
	if caps.Has(capability.ColorAll) || caps.Has(capability.FormatAll) {
		return policy{translateAll: true, keepAllTags: true}
	}
	p := policy{
		keepAllTags: caps.Has(capability.ColorAdvanced),
		keepTags:    map[string]bool{},
		colors:      caps.Has(capability.ColorBasic),
		bold:        caps.Has(capability.FormatBold),
		italic:      caps.Has(capability.FormatItalic),
	}
	// Tags equivalent to markers the author may type survive stripping.
	if p.colors {
		for _, name := range legacyColors {
			p.keepTags[name] = true
		}
	}
	if p.bold {
		p.keepTags["bold"] = true
	}
	if p.italic {
		p.keepTags["italic"] = true
	}
	return p
}

func (p policy) marker(code byte) (string, bool) {
	name, ok := LegacyTag(code)
	if !ok {
		return "", false
	}
	if p.translateAll {
		return name, true
	}
	switch {
	case isColorCode(code):
		return name, p.colors
	case name == "bold":
		return name, p.bold
	case name == "italic":
		return name, p.italic
	}
	// underline, strikethrough, obfuscate and reset need the format wildcard.
	return name, false
}

func (p policy) keepTag(tag string) bool {
	if p.keepAllTags {
		return true
	}
	name := strings.ToLower(strings.TrimSpace(tag[1 : len(tag)-1]))
	name = strings.TrimPrefix(name, "/")
	return p.keepTags[name]
}

// Sanitize applies the formatting rules of caps to text. It is pure and
// idempotent, and the output never contains a recognised legacy marker.
// Unrecognised markers such as "&z" are left as literal text. A '<' or '\'
// that does not belong to a tag is escaped so removals cannot assemble new
// tags out of the remaining text.
func Sanitize(text string, caps capability.Set) string {
	return apply(text, policyFor(caps))
}

// TranslateLegacy translates every legacy marker without permission checks.
// Tag markup is kept.
func TranslateLegacy(text string) string {
	return apply(text, policy{translateAll: true, keepAllTags: true})
}

func apply(text string, p policy) string {
	if !strings.ContainsAny(text, "&<\\") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text) && (text[i+1] == '<' || text[i+1] == '\\'):
			b.WriteString(text[i : i+2])
			i += 2
		case c == '\\':
			b.WriteString(`\\`)
			i++
		case c == '<':
			end := richtext.TagEnd(text, i)
			if end <= i+1 {
				b.WriteString(`\<`)
				i++
				continue
			}
			if tag := text[i : end+1]; p.keepTag(tag) {
				if kept, ok := stripMarkers(tag); ok {
					b.WriteString(kept)
				}
			}
			i = end + 1
		case c == '&' && i+1 < len(text) && isMarkerCode(text[i+1]):
			if name, ok := p.marker(text[i+1]); ok {
				b.WriteString("<" + name + ">")
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return unsplice(b.String())
}

// stripMarkers removes legacy markers from inside a kept tag. It reports
// false when what remains is no longer a single non-empty tag, e.g. "<&c>"
// which would otherwise become "<>".
func stripMarkers(tag string) (string, bool) {
	if !strings.Contains(tag, "&") {
		return tag, true
	}
	var b strings.Builder
	for i := 0; i < len(tag); i++ {
		if tag[i] == '&' && i+1 < len(tag) && isMarkerCode(tag[i+1]) {
			i++
			continue
		}
		b.WriteByte(tag[i])
	}
	out := b.String()
	if richtext.TagEnd(out, 0) != len(out)-1 {
		return "", false
	}
	if strings.TrimPrefix(strings.TrimSpace(out[1:len(out)-1]), "/") == "" {
		return "", false
	}
	return out, true
}

// unsplice drops any '&' that removal has pushed next to a marker code, so
// no marker can be assembled from the remains of a removed one.
func unsplice(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isMarkerCode(c) {
			for len(out) > 0 && out[len(out)-1] == '&' {
				out = out[:len(out)-1]
			}
		}
		out = append(out, c)
	}
	return string(out)
}
