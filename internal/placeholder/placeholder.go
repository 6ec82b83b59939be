// Package placeholder holds the placeholder definitions that bracketed chat
// tokens expand into. Sets are immutable; a Registry swaps whole sets on
// reload so renders in flight keep the set they started with.
package placeholder

import (
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"

	"github.com/memohai/chatmanager/internal/richtext"
	"github.com/memohai/chatmanager/internal/snapshot"
)

// ClickKind is a configured click action.
type ClickKind string

const (
	ClickOpenURL         ClickKind = "open_url"
	ClickRunCommand      ClickKind = "run_command"
	ClickSuggestCommand  ClickKind = "suggest_command"
	ClickCopyToClipboard ClickKind = "copy_to_clipboard"
	ClickShowItem        ClickKind = "show_item"
	ClickShowEnder       ClickKind = "show_ender"
	ClickShowInventory   ClickKind = "show_inv"
)

// ParseClickKind resolves a configured click action. Matching ignores case;
// "show_snapshot:<kind>" and the snapshot kind aliases are accepted.
func ParseClickKind(raw string) (ClickKind, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if kind, ok := richtext.ParseClickKind(raw); ok {
		return ClickKind(kind), true
	}
	raw = strings.TrimPrefix(raw, "show_snapshot:")
	switch k, _ := snapshot.ParseKind(raw); k {
	case snapshot.KindItem:
		return ClickShowItem, true
	case snapshot.KindEnder:
		return ClickShowEnder, true
	case snapshot.KindInventory:
		return ClickShowInventory, true
	}
	return "", false
}

// SnapshotKind returns the snapshot a show_* kind captures.
func (k ClickKind) SnapshotKind() (snapshot.Kind, bool) {
	switch k {
	case ClickShowItem:
		return snapshot.KindItem, true
	case ClickShowEnder:
		return snapshot.KindEnder, true
	case ClickShowInventory:
		return snapshot.KindInventory, true
	}
	return "", false
}

// Definition describes how one placeholder renders.
type Definition struct {
	Key                string
	DisplayTemplate    string
	HoverTemplate      string
	ClickAction        string
	ClickValueTemplate string
	ViewTitleTemplate  string
	Description        string
}

// Set is an immutable collection of definitions plus the optional command
// placeholder.
type Set struct {
	defs    map[string]Definition
	keys    []string
	command *Definition
}

func fold(key string) string {
	return cases.Fold().String(key)
}

// NewSet builds a set. A nil command disables [/command] placeholders.
// Later definitions win over earlier ones with the same folded key.
func NewSet(command *Definition, defs ...Definition) *Set {
	s := &Set{defs: make(map[string]Definition, len(defs))}
	if command != nil {
		cmd := *command
		s.command = &cmd
	}
	for _, def := range defs {
		def.Key = strings.TrimSpace(def.Key)
		folded := fold(def.Key)
		if folded == "" {
			continue
		}
		if _, exists := s.defs[folded]; !exists {
			s.keys = append(s.keys, def.Key)
		}
		s.defs[folded] = def
	}
	sort.Strings(s.keys)
	return s
}

// Lookup finds a definition by key, ignoring case. Surrounding whitespace
// is part of the key, so " item " does not match "item".
func (s *Set) Lookup(key string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.defs[fold(key)]
	return def, ok
}

// Command returns the command placeholder definition, if enabled.
func (s *Set) Command() (Definition, bool) {
	if s == nil || s.command == nil {
		return Definition{}, false
	}
	return *s.command, true
}

// Keys lists the registered keys in sorted order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Len returns the number of registered keys.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Completions suggests "[key]" tokens for the word being typed at the end of
// buffer. Command lines get no suggestions.
func (s *Set) Completions(buffer string) []string {
	if s == nil || strings.HasPrefix(buffer, "/") {
		return nil
	}
	word := buffer
	if idx := strings.LastIndexAny(buffer, " \t"); idx >= 0 {
		word = buffer[idx+1:]
	}
	word = fold(word)
	var out []string
	for _, key := range s.keys {
		token := "[" + key + "]"
		if strings.HasPrefix(fold(token), word) {
			out = append(out, token)
		}
	}
	return out
}

// Registry publishes the current set.
type Registry struct {
	cur atomic.Pointer[Set]
}

// NewRegistry creates a registry holding set, or an empty set when nil.
func NewRegistry(set *Set) *Registry {
	r := &Registry{}
	r.Replace(set)
	return r
}

// Load returns the current set. It is never nil.
func (r *Registry) Load() *Set {
	return r.cur.Load()
}

// Replace swaps in a new set.
func (r *Registry) Replace(set *Set) {
	if set == nil {
		set = NewSet(nil)
	}
	r.cur.Store(set)
}
