package placeholder

import (
	"github.com/memohai/chatmanager/internal/config"
)

// FromConfig builds a set from the [commands] and [placeholders] sections.
func FromConfig(cfg config.Config) *Set {
	var command *Definition
	if c := cfg.Commands; c.Enabled {
		clickValue := c.ClickValue
		if clickValue == "" {
			clickValue = "{command}"
		}
		command = &Definition{
			Key:                "/command",
			DisplayTemplate:    c.DisplayText,
			HoverTemplate:      c.HoverText,
			ClickAction:        c.ClickAction,
			ClickValueTemplate: clickValue,
			Description:        c.Description,
		}
	}
	defs := make([]Definition, 0, len(cfg.Placeholders))
	for key, ph := range cfg.Placeholders {
		defs = append(defs, Definition{
			Key:                key,
			DisplayTemplate:    ph.DisplayText,
			HoverTemplate:      ph.HoverText,
			ClickAction:        ph.ClickAction,
			ClickValueTemplate: ph.ClickValue,
			ViewTitleTemplate:  ph.InventoryTitle,
			Description:        ph.Description,
		})
	}
	return NewSet(command, defs...)
}
