package capability

import (
	"context"
	"strings"
	"sync"
)

// StaticProvider grants capabilities from a fixed table keyed by lowercase
// identity name, plus defaults granted to everyone. Namespaced names such as
// "chatmanager.color.basic" are accepted and trimmed to the relative form.
type StaticProvider struct {
	mu        sync.RWMutex
	namespace string
	defaults  []Capability
	byName    map[string][]Capability
}

// NewStaticProvider creates a provider for the given permission namespace.
func NewStaticProvider(namespace string, defaults []string, byName map[string][]string) *StaticProvider {
	p := &StaticProvider{namespace: strings.TrimSuffix(strings.TrimSpace(namespace), ".")}
	p.Replace(defaults, byName)
	return p
}

// Replace swaps the grant table.
func (p *StaticProvider) Replace(defaults []string, byName map[string][]string) {
	table := make(map[string][]Capability, len(byName))
	for name, grants := range byName {
		table[strings.ToLower(strings.TrimSpace(name))] = p.relative(grants)
	}
	p.mu.Lock()
	p.defaults = p.relative(defaults)
	p.byName = table
	p.mu.Unlock()
}

func (p *StaticProvider) relative(grants []string) []Capability {
	out := make([]Capability, 0, len(grants))
	for _, g := range grants {
		g = strings.ToLower(strings.TrimSpace(g))
		if p.namespace != "" {
			g = strings.TrimPrefix(g, strings.ToLower(p.namespace)+".")
		}
		if g != "" {
			out = append(out, Capability(g))
		}
	}
	return out
}

func (p *StaticProvider) Capabilities(_ context.Context, subject Subject) Set {
	if subject == nil {
		return Set{}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	grants := append([]Capability{}, p.defaults...)
	grants = append(grants, p.byName[strings.ToLower(subject.Name())]...)
	return NewSet(grants...)
}

// StaticDecorator serves decorator metadata from a fixed table keyed by
// lowercase identity name.
type StaticDecorator struct {
	mu     sync.RWMutex
	byName map[string]Meta
}

// NewStaticDecorator creates a decorator from the given table.
func NewStaticDecorator(byName map[string]Meta) *StaticDecorator {
	d := &StaticDecorator{}
	d.Replace(byName)
	return d
}

// Replace swaps the metadata table.
func (d *StaticDecorator) Replace(byName map[string]Meta) {
	table := make(map[string]Meta, len(byName))
	for name, meta := range byName {
		table[strings.ToLower(strings.TrimSpace(name))] = meta
	}
	d.mu.Lock()
	d.byName = table
	d.mu.Unlock()
}

func (d *StaticDecorator) Meta(_ context.Context, subject Subject) Meta {
	if subject == nil {
		return Meta{}
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byName[strings.ToLower(subject.Name())]
}
