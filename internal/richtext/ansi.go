package richtext

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ANSIEncoder renders trees for terminals.
type ANSIEncoder struct {
	renderer *lipgloss.Renderer
	// ShowActions appends a dim hint after text that carries a click action.
	ShowActions bool
}

// NewANSIEncoder creates an encoder whose color profile is detected from w.
func NewANSIEncoder(w io.Writer) *ANSIEncoder {
	return &ANSIEncoder{renderer: lipgloss.NewRenderer(w)}
}

// Encode renders n into a terminal string.
func (e *ANSIEncoder) Encode(n Node) string {
	var b strings.Builder
	runs := n.Runs()
	for i, run := range runs {
		b.WriteString(e.style(run.Style).Render(run.Text))
		if !e.ShowActions || run.Click == nil {
			continue
		}
		if i+1 < len(runs) && runs[i+1].Click == run.Click {
			continue
		}
		hint := fmt.Sprintf(" ⟨%s %s⟩", run.Click.Kind, run.Click.Value)
		b.WriteString(e.renderer.NewStyle().Faint(true).Render(hint))
	}
	return b.String()
}

func (e *ANSIEncoder) style(s Style) lipgloss.Style {
	style := e.renderer.NewStyle().
		Bold(s.Bold.Enabled()).
		Italic(s.Italic.Enabled()).
		Underline(s.Underlined.Enabled()).
		Strikethrough(s.Strikethrough.Enabled()).
		Faint(s.Obfuscated.Enabled())
	if s.Color != "" {
		style = style.Foreground(lipgloss.Color(HexColor(s.Color)))
	}
	return style
}
