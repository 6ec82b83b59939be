package richtext

import (
	"regexp"
	"strings"
)

// NamedColors maps the sixteen classic chat color names to their RGB values.
var NamedColors = map[string]string{
	"black":        "#000000",
	"dark_blue":    "#0000aa",
	"dark_green":   "#00aa00",
	"dark_aqua":    "#00aaaa",
	"dark_red":     "#aa0000",
	"dark_purple":  "#aa00aa",
	"gold":         "#ffaa00",
	"gray":         "#aaaaaa",
	"dark_gray":    "#555555",
	"blue":         "#5555ff",
	"green":        "#55ff55",
	"aqua":         "#55ffff",
	"red":          "#ff5555",
	"light_purple": "#ff55ff",
	"yellow":       "#ffff55",
	"white":        "#ffffff",
}

var colorAliases = map[string]string{
	"grey":      "gray",
	"dark_grey": "dark_gray",
}

var reHexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// NormalizeColor returns the canonical form of a color name or hex value.
func NormalizeColor(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := colorAliases[name]; ok {
		name = alias
	}
	if _, ok := NamedColors[name]; ok {
		return name, true
	}
	if reHexColor.MatchString(name) {
		return name, true
	}
	return "", false
}

// HexColor resolves a normalized color to its #rrggbb value.
func HexColor(color string) string {
	if hex, ok := NamedColors[color]; ok {
		return hex
	}
	return color
}
