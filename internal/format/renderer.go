// Package format fills the configured message and scope templates with an
// author's sanitized text and decorator metadata.
package format

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/memohai/chatmanager/internal/capability"
	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/richtext"
	"github.com/memohai/chatmanager/internal/sanitize"
)

// Scope selects the wrapper template.
type Scope string

const (
	ScopeLocal  Scope = "local"
	ScopeGlobal Scope = "global"
)

// Templates are the configured format strings.
type Templates struct {
	Message string
	Local   string
	Global  string
}

// TemplatesFromConfig copies the [formats] section.
func TemplatesFromConfig(cfg config.FormatsConfig) Templates {
	return Templates{Message: cfg.Message, Local: cfg.Local, Global: cfg.Global}
}

func (t Templates) scope(s Scope) string {
	if s == ScopeGlobal {
		return t.Global
	}
	return t.Local
}

// AuthorContext is what one render knows about its author.
type AuthorContext struct {
	Identity     identity.Identity
	Capabilities capability.Set
	Meta         capability.Meta
}

// Renderer produces markup strings from raw author text.
type Renderer struct {
	caps      capability.Provider
	decorator capability.Decorator
	templates atomic.Pointer[Templates]
}

// NewRenderer creates a renderer. Nil collaborators behave as no-ops.
func NewRenderer(caps capability.Provider, decorator capability.Decorator, templates Templates) *Renderer {
	if caps == nil {
		caps = capability.NoopProvider{}
	}
	if decorator == nil {
		decorator = capability.NoopDecorator{}
	}
	r := &Renderer{caps: caps, decorator: decorator}
	r.SetTemplates(templates)
	return r
}

// SetTemplates swaps the templates used by later renders.
func (r *Renderer) SetTemplates(t Templates) {
	r.templates.Store(&t)
}

// Templates returns the current templates.
func (r *Renderer) Templates() Templates {
	return *r.templates.Load()
}

// Capabilities resolves the capability set of an identity.
func (r *Renderer) Capabilities(ctx context.Context, id identity.Identity) capability.Set {
	if id == nil {
		return capability.Set{}
	}
	return r.caps.Capabilities(ctx, id)
}

// Author resolves capabilities and decorator metadata once for a render.
func (r *Renderer) Author(ctx context.Context, id identity.Identity) AuthorContext {
	author := AuthorContext{Identity: id}
	if id == nil {
		return author
	}
	author.Capabilities = r.caps.Capabilities(ctx, id)
	author.Meta = r.decorator.Meta(ctx, id)
	return author
}

// RenderAuthored sanitizes rawText for the author, places it into the
// message template together with the decorator fields and wraps the result
// in the scope template. Each template is expanded in a single pass, so text
// coming from the author is never expanded again. Unknown tokens stay as
// they are; an unknown scope uses the local wrapper.
func (r *Renderer) RenderAuthored(author AuthorContext, rawText string, scope Scope) string {
	t := r.Templates()
	message := sanitize.Sanitize(rawText, author.Capabilities)

	var name, displayName string
	if author.Identity != nil {
		name = richtext.Escape(author.Identity.Name())
		displayName = richtext.Escape(author.Identity.DisplayName())
	}
	inner := strings.NewReplacer(
		"{message}", message,
		"{prefix}", sanitize.TranslateLegacy(author.Meta.Prefix),
		"{suffix}", sanitize.TranslateLegacy(author.Meta.Suffix),
		"{username-color}", sanitize.TranslateLegacy(author.Meta.UsernameColor),
		"{displayname}", displayName,
		"{name}", name,
	).Replace(t.Message)

	return strings.ReplaceAll(t.scope(scope), "{message}", inner)
}

// RenderPlain renders relay text such as whispers and broadcasts: legacy
// markers are translated without permission checks and no template applies.
func (r *Renderer) RenderPlain(_ identity.Identity, rawText string) string {
	return sanitize.TranslateLegacy(rawText)
}
