package format

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/memohai/chatmanager/internal/capability"
	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/richtext"
)

func newRenderer() *Renderer {
	caps := capability.NewStaticProvider("chatmanager", nil, map[string][]string{
		"admin": {"chatmanager.color.*"},
	})
	deco := capability.NewStaticDecorator(map[string]capability.Meta{
		"admin": {Prefix: "&c[Admin] ", UsernameColor: "<gold>"},
	})
	return NewRenderer(caps, deco, TemplatesFromConfig(config.Default().Formats))
}

func TestRenderAuthored_DefaultTemplates(t *testing.T) {
	r := newRenderer()
	steve := identity.NewPlayer(uuid.New(), "Steve")
	author := r.Author(context.Background(), steve)

	out := r.RenderAuthored(author, "&chello", ScopeLocal)
	assert.Equal(t, "<yellow>Ⓛ</yellow> Steve<dark_gray> »<reset> hello", out)
	assert.Equal(t, "Ⓛ Steve » hello", richtext.Parse(out).PlainText())

	out = r.RenderAuthored(author, "hi", ScopeGlobal)
	assert.Equal(t, "<green>Ⓖ</green> Steve<dark_gray> »<reset> hi", out)
}

func TestRenderAuthored_DecoratorAndCapabilities(t *testing.T) {
	r := newRenderer()
	admin := identity.NewPlayer(uuid.New(), "Admin")
	admin.SetDisplayName("The Admin")
	author := r.Author(context.Background(), admin)

	out := r.RenderAuthored(author, "&chello", ScopeLocal)
	assert.Equal(t, "<yellow>Ⓛ</yellow> <red>[Admin] <gold>The Admin<dark_gray> »<reset> <red>hello", out)
}

func TestRenderAuthored_UserTextIsNotExpanded(t *testing.T) {
	r := NewRenderer(nil, nil, Templates{Message: "{name}: {message}", Local: "{message}"})
	steve := identity.NewPlayer(uuid.New(), "Steve")
	out := r.RenderAuthored(r.Author(context.Background(), steve), "{name} {prefix} {unknown}", Scope("party"))
	assert.Equal(t, "Steve: {name} {prefix} {unknown}", out)
}

func TestRenderAuthored_UnknownTemplateTokensStay(t *testing.T) {
	r := NewRenderer(nil, nil, Templates{Message: "{rank} {message}", Local: "[{world}] {message}"})
	out := r.RenderAuthored(AuthorContext{}, "x", ScopeLocal)
	assert.Equal(t, "[{world}] {rank} x", out)
}

func TestRenderAuthored_DisplayNameIsEscaped(t *testing.T) {
	r := NewRenderer(nil, nil, Templates{Message: "{displayname}: {message}", Local: "{message}"})
	p := identity.NewPlayer(uuid.New(), "Steve")
	p.SetDisplayName("<red>Steve")
	out := r.RenderAuthored(r.Author(context.Background(), p), "hi", ScopeLocal)
	assert.Equal(t, "<red>Steve: hi", richtext.Parse(out).PlainText())
}

func TestRenderPlain(t *testing.T) {
	r := newRenderer()
	assert.Equal(t, "<red>hi <bold>there", r.RenderPlain(identity.Console{}, "&chi &lthere"))
}

func TestSetTemplates(t *testing.T) {
	r := newRenderer()
	r.SetTemplates(Templates{Message: "{message}", Local: "L {message}", Global: "G {message}"})
	assert.Equal(t, "G x", r.RenderAuthored(AuthorContext{}, "x", ScopeGlobal))
}
