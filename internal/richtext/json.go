package richtext

import (
	"encoding/json"
)

type jsonClick struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

type jsonHover struct {
	Action   string        `json:"action"`
	Contents jsonComponent `json:"contents"`
}

type jsonComponent struct {
	Text          string          `json:"text"`
	Color         string          `json:"color,omitempty"`
	Bold          *bool           `json:"bold,omitempty"`
	Italic        *bool           `json:"italic,omitempty"`
	Underlined    *bool           `json:"underlined,omitempty"`
	Strikethrough *bool           `json:"strikethrough,omitempty"`
	Obfuscated    *bool           `json:"obfuscated,omitempty"`
	ClickEvent    *jsonClick      `json:"clickEvent,omitempty"`
	HoverEvent    *jsonHover      `json:"hoverEvent,omitempty"`
	Extra         []jsonComponent `json:"extra,omitempty"`
}

func decorationPtr(d Decoration) *bool {
	switch d {
	case DecorationOn:
		v := true
		return &v
	case DecorationOff:
		v := false
		return &v
	}
	return nil
}

// toJSON flattens n into a root component whose extra list holds the
// resolved runs, so inheritance is explicit on the wire.
func toJSON(n Node) jsonComponent {
	root := jsonComponent{}
	for _, run := range n.Runs() {
		c := jsonComponent{
			Text:          run.Text,
			Color:         run.Style.Color,
			Bold:          decorationPtr(run.Style.Bold),
			Italic:        decorationPtr(run.Style.Italic),
			Underlined:    decorationPtr(run.Style.Underlined),
			Strikethrough: decorationPtr(run.Style.Strikethrough),
			Obfuscated:    decorationPtr(run.Style.Obfuscated),
		}
		if run.Click != nil {
			c.ClickEvent = &jsonClick{Action: string(run.Click.Kind), Value: run.Click.Value}
		}
		if run.Hover != nil {
			c.HoverEvent = &jsonHover{Action: "show_text", Contents: toJSON(*run.Hover)}
		}
		root.Extra = append(root.Extra, c)
	}
	return root
}

// MarshalJSON encodes the tree as a chat component.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(n))
}
