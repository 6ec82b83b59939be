// Package action turns a placeholder definition into an interactive rich
// text node: display text, an optional hover and a click action. Snapshot
// kinds capture the actor's items into a view session and point the click
// at the open-view command.
package action

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/i18n"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/placeholder"
	"github.com/memohai/chatmanager/internal/richtext"
	"github.com/memohai/chatmanager/internal/snapshot"
	"github.com/memohai/chatmanager/internal/viewsession"
)

// OpenViewCommand is the command a snapshot click runs.
const OpenViewCommand = "/chatmanager openinv"

// OpenViewClick returns the click value that opens the session of owner.
func OpenViewClick(owner uuid.UUID, kind snapshot.Kind) string {
	return fmt.Sprintf("%s %s %s", OpenViewCommand, owner, kind)
}

// Settings are the reloadable parts of the builder.
type Settings struct {
	// ItemTemplate renders a held item; {name} and {count} are expanded.
	ItemTemplate string
	// EmptyItemTemplate renders an empty hand.
	EmptyItemTemplate string
	// DefaultLocale is used for actors without a client locale.
	DefaultLocale string
}

// SettingsFromConfig extracts builder settings.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		ItemTemplate:      cfg.Messages.Item,
		EmptyItemTemplate: cfg.Messages.ItemEmpty,
		DefaultLocale:     cfg.Locale.Default,
	}
}

// Builder builds placeholder nodes.
type Builder struct {
	store    *viewsession.Store
	catalog  *i18n.Catalog
	logger   *slog.Logger
	settings atomic.Pointer[Settings]
}

// NewBuilder creates a builder. A nil catalog names items after their
// material.
func NewBuilder(log *slog.Logger, store *viewsession.Store, catalog *i18n.Catalog, settings Settings) *Builder {
	b := &Builder{
		store:   store,
		catalog: catalog,
		logger:  log.With(slog.String("service", "action")),
	}
	b.SetSettings(settings)
	return b
}

// SetSettings swaps the settings used by later builds.
func (b *Builder) SetSettings(s Settings) {
	b.settings.Store(&s)
}

// Build renders def for actor. value is the contextual value of the matched
// token: the command for [/command] tokens, the key otherwise. Build never
// fails; configuration problems degrade to a display-only node.
func (b *Builder) Build(ctx context.Context, def placeholder.Definition, actor identity.Identity, value string) richtext.Node {
	exp := b.expander(actor, value)

	node := richtext.Parse(exp.markup(def.DisplayTemplate))
	if hover := exp.markup(def.HoverTemplate); strings.TrimSpace(hover) != "" {
		node = node.WithHover(richtext.Parse(hover))
	}

	if strings.TrimSpace(def.ClickAction) == "" {
		return node
	}
	kind, ok := placeholder.ParseClickKind(def.ClickAction)
	if !ok {
		b.logger.WarnContext(ctx, "unknown click action",
			slog.String("placeholder", def.Key),
			slog.String("action", def.ClickAction))
		return node
	}

	if snapKind, isSnapshot := kind.SnapshotKind(); isSnapshot {
		return b.snapshotClick(ctx, node, def, actor, snapKind, exp)
	}

	clickValue := exp.raw(def.ClickValueTemplate)
	if strings.TrimSpace(clickValue) == "" {
		return node
	}
	return node.WithClick(richtext.ClickAction{Kind: richtext.ClickKind(kind), Value: clickValue})
}

func (b *Builder) snapshotClick(ctx context.Context, node richtext.Node, def placeholder.Definition, actor identity.Identity, kind snapshot.Kind, exp expander) richtext.Node {
	holder, ok := actor.(identity.InventoryHolder)
	if !ok || b.store == nil {
		return node
	}
	snap, err := snapshot.Capture(holder, kind, exp.raw(def.ViewTitleTemplate))
	if err != nil {
		b.logger.WarnContext(ctx, "capture snapshot failed",
			slog.String("placeholder", def.Key),
			slog.Any("error", err))
		return node
	}
	b.store.Put(actor.ID(), kind, snap)
	return node.WithClick(richtext.ClickAction{
		Kind:  richtext.ClickRunCommand,
		Value: OpenViewClick(actor.ID(), kind),
	})
}

// HeldItem renders the description of actor's held item.
func (b *Builder) HeldItem(actor identity.Identity) (string, bool) {
	holder, ok := actor.(identity.HeldItemHolder)
	if !ok {
		return "", false
	}
	s := b.settings.Load()
	item, held := holder.HeldItem()
	if !held || item.IsEmpty() {
		return s.EmptyItemTemplate, true
	}

	locale := s.DefaultLocale
	if l, ok := actor.(identity.Localized); ok && l.Locale() != "" {
		locale = l.Locale()
	}
	name := strings.ReplaceAll(item.Material, "_", " ")
	if b.catalog != nil {
		name = b.catalog.ItemName(locale, item)
	} else if item.Name != "" {
		name = item.Name
	}
	count := ""
	if item.Amount > 1 {
		count = " × " + strconv.Itoa(item.Amount)
	}
	return strings.NewReplacer(
		"{name}", richtext.Escape(name),
		"{count}", count,
	).Replace(s.ItemTemplate), true
}

// expander fills definition templates. Markup templates get escaped values
// so text from chat cannot open tags; raw templates (click values, titles)
// get the values as they are.
type expander struct {
	markupR *strings.Replacer
	rawR    *strings.Replacer
}

func (b *Builder) expander(actor identity.Identity, value string) expander {
	var name, display string
	if actor != nil {
		name = actor.Name()
		display = actor.DisplayName()
	}
	markupPairs := []string{
		"{command}", richtext.Escape(value),
		"{value}", richtext.Escape(value),
		"{player}", richtext.Escape(display),
		"{actor}", richtext.Escape(display),
		"{name}", richtext.Escape(name),
	}
	rawPairs := []string{
		"{command}", value,
		"{value}", value,
		"{player}", display,
		"{actor}", display,
		"{name}", name,
	}
	if item, ok := b.HeldItem(actor); ok {
		markupPairs = append(markupPairs, "{item}", item, "{held-item}", item)
		plain := richtext.Parse(item).PlainText()
		rawPairs = append(rawPairs, "{item}", plain, "{held-item}", plain)
	}
	return expander{
		markupR: strings.NewReplacer(markupPairs...),
		rawR:    strings.NewReplacer(rawPairs...),
	}
}

func (e expander) markup(template string) string {
	if template == "" {
		return ""
	}
	return e.markupR.Replace(template)
}

func (e expander) raw(template string) string {
	if template == "" {
		return ""
	}
	return e.rawR.Replace(template)
}
