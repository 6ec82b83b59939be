// Package annotate decorates rendered chat with player references: @mentions
// are highlighted and notify the mentioned player, bare names get a hover
// card. Both passes run after placeholder substitution.
package annotate

import (
	"unicode"
	"unicode/utf8"

	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/richtext"
)

type nameMatch struct {
	span  richtext.Span
	owner identity.Identity
}

// findNames finds every standalone occurrence of prefix+name or
// prefix+display name of the given identities in plain. The result is
// resolved leftmost first, longest first.
func findNames(plain, prefix string, online []identity.Identity) ([]richtext.Span, map[[2]int]identity.Identity) {
	owners := map[[2]int]identity.Identity{}
	var spans []richtext.Span
	for _, id := range online {
		tokens := []string{id.Name()}
		if d := id.DisplayName(); d != "" && d != id.Name() {
			tokens = append(tokens, d)
		}
		for _, token := range tokens {
			for _, s := range richtext.FindLiteral(plain, prefix+token) {
				if !standalone(plain, s) {
					continue
				}
				key := [2]int{s.Start, s.End}
				if _, taken := owners[key]; taken {
					continue
				}
				owners[key] = id
				spans = append(spans, s)
			}
		}
	}
	return richtext.Resolve(spans), owners
}

// standalone reports whether s is not glued to surrounding word characters.
func standalone(plain string, s richtext.Span) bool {
	if s.Start > 0 {
		r, _ := utf8.DecodeLastRuneInString(plain[:s.Start])
		if isWordRune(r) {
			return false
		}
	}
	if s.End < len(plain) {
		r, _ := utf8.DecodeRuneInString(plain[s.End:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
