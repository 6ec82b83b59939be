// Package substitute replaces bracketed placeholder tokens in a rendered
// tree with the interactive nodes their definitions describe.
package substitute

import (
	"context"
	"regexp"

	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/placeholder"
	"github.com/memohai/chatmanager/internal/richtext"
)

var (
	reCommand = regexp.MustCompile(`\[(/[^\]]+)\]`)
	reKey     = regexp.MustCompile(`\[([^\[\]/][^\[\]]*)\]`)
)

// NodeBuilder renders one matched definition.
type NodeBuilder interface {
	Build(ctx context.Context, def placeholder.Definition, actor identity.Identity, value string) richtext.Node
}

// Engine finds placeholder tokens in the plain-text projection of a tree and
// rewrites the tree once with all replacements.
type Engine struct {
	registry *placeholder.Registry
	builder  NodeBuilder
}

// NewEngine creates an engine over the given registry.
func NewEngine(registry *placeholder.Registry, builder NodeBuilder) *Engine {
	return &Engine{registry: registry, builder: builder}
}

type match struct {
	def   placeholder.Definition
	value string
}

// Substitute returns tree with every [/command] token (when a command
// definition is configured) and every [key] token of a registered key
// replaced. Overlapping tokens resolve leftmost first. Unknown keys stay as
// literal text, and styling outside the tokens is kept.
func (e *Engine) Substitute(ctx context.Context, tree richtext.Node, actor identity.Identity) richtext.Node {
	set := e.registry.Load()
	plain := tree.PlainText()

	var spans []richtext.Span
	matches := map[[2]int]match{}
	add := func(start, end int, m match) {
		spans = append(spans, richtext.Span{Start: start, End: end})
		matches[[2]int{start, end}] = m
	}

	if def, ok := set.Command(); ok {
		for _, loc := range reCommand.FindAllStringSubmatchIndex(plain, -1) {
			add(loc[0], loc[1], match{def: def, value: plain[loc[2]:loc[3]]})
		}
	}
	if set.Len() > 0 {
		for _, loc := range reKey.FindAllStringSubmatchIndex(plain, -1) {
			def, ok := set.Lookup(plain[loc[2]:loc[3]])
			if !ok {
				continue
			}
			add(loc[0], loc[1], match{def: def, value: def.Key})
		}
	}
	if len(spans) == 0 {
		return tree
	}

	// Nodes are built only for the spans that survive, so a dropped token
	// never captures a snapshot.
	spans = richtext.Resolve(spans)
	for i, s := range spans {
		m := matches[[2]int{s.Start, s.End}]
		spans[i].Node = e.builder.Build(ctx, m.def, actor, m.value)
	}
	return richtext.ReplaceSpans(tree, spans)
}
