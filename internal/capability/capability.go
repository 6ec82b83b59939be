// Package capability resolves what an acting identity may do and which
// decorator metadata (prefix, suffix, name color) is attached to it.
package capability

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Capability is a permission name relative to the configured namespace,
// e.g. "color.basic".
type Capability string

const (
	ColorAll      Capability = "color.*"
	ColorBasic    Capability = "color.basic"
	ColorAdvanced Capability = "color.advanced"
	FormatAll     Capability = "format.*"
	FormatBold    Capability = "format.bold"
	FormatItalic  Capability = "format.italic"
	Reload        Capability = "reload"
	LocalListener Capability = "local.listener"
)

// Set is an immutable set of granted capabilities.
type Set struct {
	items map[Capability]struct{}
}

// NewSet builds a set from the given capabilities.
func NewSet(caps ...Capability) Set {
	items := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		c = Capability(strings.ToLower(strings.TrimSpace(string(c))))
		if c != "" {
			items[c] = struct{}{}
		}
	}
	return Set{items: items}
}

// Has reports whether c is granted.
func (s Set) Has(c Capability) bool {
	_, ok := s.items[c]
	return ok
}

// List returns the granted capabilities sorted by name.
func (s Set) List() []Capability {
	out := make([]Capability, 0, len(s.items))
	for c := range s.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Subject is what capability queries are asked about.
type Subject interface {
	ID() uuid.UUID
	Name() string
}

// Provider answers capability queries for an acting identity.
type Provider interface {
	Capabilities(ctx context.Context, subject Subject) Set
}

// Meta is decorator-supplied metadata. Missing values are empty strings.
type Meta struct {
	Prefix        string
	Suffix        string
	UsernameColor string
}

// Decorator supplies prefix/suffix/name color for an identity.
type Decorator interface {
	Meta(ctx context.Context, subject Subject) Meta
}

// NoopProvider grants nothing. Used when no permission service is installed.
type NoopProvider struct{}

func (NoopProvider) Capabilities(context.Context, Subject) Set { return Set{} }

// NoopDecorator supplies empty metadata.
type NoopDecorator struct{}

func (NoopDecorator) Meta(context.Context, Subject) Meta { return Meta{} }
