package richtext

import (
	"strings"
)

// Parse deserializes canonical tag markup (`<red>`, `<bold>`,
// `<hover:show_text:'...'>`, `<click:run_command:'/x'>`, `<reset>`, closing
// tags) into a tree. Unknown tags and unbalanced brackets are kept as
// literal text, so Parse never fails.
func Parse(markup string) Node {
	p := &parser{}
	p.run(markup)
	return p.root()
}

type frame struct {
	name  string
	kind  string
	style Style
	hover *Node
	click *ClickAction
}

type parser struct {
	frames []frame
	buf    strings.Builder
	out    []Node
}

func (p *parser) root() Node {
	p.flush()
	if len(p.out) == 1 {
		return p.out[0]
	}
	return Node{Children: p.out}
}

func (p *parser) flush() {
	if p.buf.Len() == 0 {
		return
	}
	n := Node{Text: p.buf.String()}
	p.buf.Reset()
	for _, f := range p.frames {
		n.Style = f.style.Over(n.Style)
		if f.hover != nil {
			n.Hover = f.hover
		}
		if f.click != nil {
			n.Click = f.click
		}
	}
	p.out = append(p.out, n)
}

func (p *parser) run(s string) {
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' && i+1 < len(s) && (s[i+1] == '<' || s[i+1] == '\\') {
			p.buf.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c != '<' {
			p.buf.WriteByte(c)
			i++
			continue
		}
		end := TagEnd(s, i)
		if end < 0 {
			p.buf.WriteByte(c)
			i++
			continue
		}
		raw := s[i : end+1]
		if !p.tag(s[i+1 : end]) {
			p.buf.WriteString(raw)
		}
		i = end + 1
	}
}

var escaper = strings.NewReplacer(`\`, `\\`, `<`, `\<`)

// Escape quotes text so Parse reads it back literally.
func Escape(text string) string {
	return escaper.Replace(text)
}

// TagEnd returns the index of the '>' closing the tag opened by the '<' at
// open, honouring quoted arguments, or -1 when no tag starts there.
func TagEnd(s string, open int) int {
	var quote byte
	for i := open + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '<':
			return -1
		case c == '>':
			return i
		}
	}
	return -1
}

// splitArgs splits tag content on ':' outside quotes and unquotes each part.
func splitArgs(content string) []string {
	var (
		parts []string
		cur   strings.Builder
		quote byte
	)
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(content) && (content[i+1] == quote || content[i+1] == '\\') {
				cur.WriteByte(content[i+1])
				i++
				continue
			}
			if c == quote {
				quote = 0
				continue
			}
			cur.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
		case c == ':':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}

var decorationAliases = map[string]string{
	"bold":          "bold",
	"b":             "bold",
	"italic":        "italic",
	"i":             "italic",
	"em":            "italic",
	"underlined":    "underlined",
	"u":             "underlined",
	"strikethrough": "strikethrough",
	"st":            "strikethrough",
	"obfuscated":    "obfuscated",
	"obf":           "obfuscated",
}

func setDecoration(style *Style, name string, value Decoration) {
	switch name {
	case "bold":
		style.Bold = value
	case "italic":
		style.Italic = value
	case "underlined":
		style.Underlined = value
	case "strikethrough":
		style.Strikethrough = value
	case "obfuscated":
		style.Obfuscated = value
	}
}

// tag applies one tag and reports whether it was recognised.
func (p *parser) tag(content string) bool {
	if content == "" {
		return false
	}
	if strings.HasPrefix(content, "/") {
		return p.close(strings.ToLower(strings.TrimSpace(content[1:])))
	}
	args := splitArgs(content)
	name := strings.ToLower(strings.TrimSpace(args[0]))
	args = args[1:]

	switch name {
	case "reset":
		p.flush()
		p.frames = nil
		return true
	case "newline", "br":
		p.buf.WriteByte('\n')
		return true
	case "color", "colour", "c":
		if len(args) == 0 {
			return false
		}
		color, ok := NormalizeColor(args[0])
		if !ok {
			return false
		}
		p.open(frame{name: name, kind: "color", style: Style{Color: color}})
		return true
	case "gradient", "rainbow":
		// Gradients collapse to their first stop.
		color := "red"
		if len(args) > 0 {
			if c, ok := NormalizeColor(args[0]); ok {
				color = c
			}
		}
		p.open(frame{name: name, kind: "color", style: Style{Color: color}})
		return true
	case "hover":
		if len(args) < 2 || strings.ToLower(args[0]) != "show_text" {
			return false
		}
		hover := Parse(args[1])
		p.open(frame{name: name, kind: name, hover: &hover})
		return true
	case "click":
		if len(args) < 2 {
			return false
		}
		kind, ok := ParseClickKind(args[0])
		if !ok {
			return false
		}
		p.open(frame{name: name, kind: name, click: &ClickAction{Kind: kind, Value: strings.Join(args[1:], ":")}})
		return true
	}
	if deco, ok := decorationAliases[name]; ok {
		value := DecorationOn
		if len(args) > 0 && strings.EqualFold(args[0], "false") {
			value = DecorationOff
		}
		var style Style
		setDecoration(&style, deco, value)
		p.open(frame{name: deco, kind: "decoration", style: style})
		return true
	}
	if color, ok := NormalizeColor(name); ok {
		p.open(frame{name: color, kind: "color", style: Style{Color: color}})
		return true
	}
	return false
}

func (p *parser) open(f frame) {
	p.flush()
	p.frames = append(p.frames, f)
}

func (p *parser) close(name string) bool {
	if alias, ok := decorationAliases[name]; ok {
		name = alias
	} else if color, ok := NormalizeColor(name); ok {
		name = color
	}
	for i := len(p.frames) - 1; i >= 0; i-- {
		f := p.frames[i]
		if name == "" || f.name == name || f.kind == name {
			p.flush()
			p.frames = append(p.frames[:i:i], p.frames[i+1:]...)
			return true
		}
	}
	return false
}
