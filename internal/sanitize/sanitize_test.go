package sanitize

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/memohai/chatmanager/internal/capability"
	"github.com/memohai/chatmanager/internal/richtext"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		caps  []capability.Capability
		want  string
	}{
		{"no caps strips legacy color", "&chello", nil, "hello"},
		{"no caps strips tags", "<red>hi</red> <bold>there", nil, "hi there"},
		{"no caps strips every format marker", "&l&o&n&m&k&rx", nil, "x"},
		{"basic color translated", "&chello", []capability.Capability{capability.ColorBasic}, "<red>hello"},
		{"uppercase marker", "&Chello", []capability.Capability{capability.ColorBasic}, "<red>hello"},
		{"basic color keeps equivalent tag", "<red>a</red><rainbow>b", []capability.Capability{capability.ColorBasic}, "<red>a</red>b"},
		{"basic color drops bold marker", "&l&cx", []capability.Capability{capability.ColorBasic}, "<red>x"},
		{"bold only", "&lbig &oslanted", []capability.Capability{capability.FormatBold}, "<bold>big slanted"},
		{"italic only", "&lbig &oslanted", []capability.Capability{capability.FormatItalic}, "big <italic>slanted"},
		{"advanced keeps tags but not legacy", "<rainbow>&chi", []capability.Capability{capability.ColorAdvanced}, "<rainbow>hi"},
		{"color wildcard translates all", "&c&l&nx&r", []capability.Capability{capability.ColorAll}, "<red><bold><underlined>x<reset>"},
		{"format wildcard translates all", "&kx", []capability.Capability{capability.FormatAll}, "<obfuscated>x"},
		{"unknown marker passes through", "&zfoo & bar", nil, "&zfoo & bar"},
		{"spliced marker removed", "&&cc", nil, "c"},
		{"marker spliced by tag removal", "&<x>c", []capability.Capability{capability.ColorBasic}, "c"},
		{"lone angle bracket escaped", "a < b", nil, `a \< b`},
		{"spliced tag escaped", "<<x>red>", []capability.Capability{capability.ColorBasic}, `\<red>`},
		{"markers inside kept tag removed", "<hover:show_text:'&chi'>x", []capability.Capability{capability.ColorAdvanced}, "<hover:show_text:'hi'>x"},
		{"marker-only tag dropped", "<&c>>", []capability.Capability{capability.ColorAdvanced}, ">"},
		{"marker-only closing tag dropped", "</&l>x", []capability.Capability{capability.ColorAll}, "x"},
		{"plain text untouched", "hello world", nil, "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input, capability.NewSet(tt.caps...)); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_MarkerOnlyTagIsIdempotent(t *testing.T) {
	for _, input := range []string{"<&c>>", "<&l>x", "<&c&o>>y", "</&c>"} {
		for _, caps := range [][]capability.Capability{
			{capability.ColorAdvanced},
			{capability.ColorAll},
			{capability.FormatAll},
		} {
			set := capability.NewSet(caps...)
			once := Sanitize(input, set)
			if twice := Sanitize(once, set); twice != once {
				t.Fatalf("Sanitize(%q, %v): once=%q twice=%q", input, caps, once, twice)
			}
		}
	}
}

func TestSanitize_RendersPlain(t *testing.T) {
	out := Sanitize("&chello a < b", capability.Set{})
	assert.Equal(t, "hello a < b", richtext.Parse(out).PlainText())
}

func TestTranslateLegacy(t *testing.T) {
	assert.Equal(t, "<gold>[<red>Admin<gold>] <hover:show_text:'x'>y", TranslateLegacy("&6[&cAdmin&6] <hover:show_text:'x'>y"))
	assert.Equal(t, "plain", TranslateLegacy("plain"))
}

var allCaps = []capability.Capability{
	capability.ColorAll,
	capability.ColorBasic,
	capability.ColorAdvanced,
	capability.FormatAll,
	capability.FormatBold,
	capability.FormatItalic,
}

func capsFrom(flags []bool) []capability.Capability {
	var out []capability.Capability
	for i, on := range flags {
		if on && i < len(allCaps) {
			out = append(out, allCaps[i])
		}
	}
	return out
}

func genMarkup() gopter.Gen {
	return gen.SliceOf(gen.OneConstOf(
		"&c", "&C", "&l", "&o", "&n", "&m", "&k", "&r", "&z", "&", "&&",
		"<red>", "</red>", "<bold>", "<italic>", "<rainbow>", "<x>", "<", ">", `\`,
		"hi", " ", "c", "l", "<hover:show_text:'&cz'>",
		"<&c>", "</&l>", "<&c&o>",
	)).Map(func(parts []string) string { return strings.Join(parts, "") })
}

// features lists the tags present in sanitized output.
func features(s string) map[string]bool {
	out := map[string]bool{}
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			i++
		case s[i] == '<':
			if end := richtext.TagEnd(s, i); end > i+1 {
				out[strings.ToLower(s[i+1:end])] = true
				i = end
			}
		}
	}
	return out
}

func TestSanitize_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("idempotent", prop.ForAll(
		func(text string, flags []bool) bool {
			caps := capability.NewSet(capsFrom(flags)...)
			once := Sanitize(text, caps)
			return Sanitize(once, caps) == once
		},
		genMarkup(),
		gen.SliceOfN(len(allCaps), gen.Bool()),
	))

	properties.Property("no recognised legacy marker survives", prop.ForAll(
		func(text string, flags []bool) bool {
			out := Sanitize(text, capability.NewSet(capsFrom(flags)...))
			for i := 0; i+1 < len(out); i++ {
				if out[i] == '&' && isMarkerCode(out[i+1]) {
					return false
				}
			}
			return true
		},
		genMarkup(),
		gen.SliceOfN(len(allCaps), gen.Bool()),
	))

	properties.Property("monotone in capabilities", prop.ForAll(
		func(text string, small, extra []bool) bool {
			a := capsFrom(small)
			b := append(capsFrom(extra), a...)
			fa := features(Sanitize(text, capability.NewSet(a...)))
			fb := features(Sanitize(text, capability.NewSet(b...)))
			for tag := range fa {
				if !fb[tag] {
					return false
				}
			}
			return true
		},
		genMarkup(),
		gen.SliceOfN(len(allCaps), gen.Bool()),
		gen.SliceOfN(len(allCaps), gen.Bool()),
	))

	properties.TestingRun(t)
}
