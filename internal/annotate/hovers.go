package annotate

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/richtext"
)

// HoverSettings configure the hover pass.
type HoverSettings struct {
	Enabled bool
	// Text is the hover card; {player}, {name} and {displayname} are expanded.
	Text string
}

// HoverSettingsFromConfig extracts hover settings.
func HoverSettingsFromConfig(cfg config.HoverConfig) HoverSettings {
	return HoverSettings{Enabled: cfg.Enabled, Text: cfg.Text}
}

// Hovers attaches a hover card to names of online identities.
type Hovers struct {
	tracker  *identity.Tracker
	settings atomic.Pointer[HoverSettings]
}

// NewHovers creates the pass.
func NewHovers(tracker *identity.Tracker, settings HoverSettings) *Hovers {
	h := &Hovers{tracker: tracker}
	h.SetSettings(settings)
	return h
}

// SetSettings swaps the settings used by later passes.
func (h *Hovers) SetSettings(s HoverSettings) {
	h.settings.Store(&s)
}

// Apply adds the hover card to every standalone name in tree. Text, style
// and click actions of the names are kept.
func (h *Hovers) Apply(_ context.Context, tree richtext.Node) richtext.Node {
	s := h.settings.Load()
	if !s.Enabled || h.tracker == nil || strings.TrimSpace(s.Text) == "" {
		return tree
	}
	spans, owners := findNames(tree.PlainText(), "", h.tracker.Online())
	if len(spans) == 0 {
		return tree
	}

	// Resolved spans never overlap, so each owner's spans can be mapped in
	// its own pass over the tree.
	var order []identity.Identity
	byOwner := map[uuid.UUID][]richtext.Span{}
	for _, span := range spans {
		owner := owners[[2]int{span.Start, span.End}]
		if _, seen := byOwner[owner.ID()]; !seen {
			order = append(order, owner)
		}
		byOwner[owner.ID()] = append(byOwner[owner.ID()], span)
	}
	for _, owner := range order {
		card := richtext.Parse(strings.NewReplacer(
			"{player}", richtext.Escape(owner.DisplayName()),
			"{displayname}", richtext.Escape(owner.DisplayName()),
			"{name}", richtext.Escape(owner.Name()),
		).Replace(s.Text))
		tree = richtext.MapSpans(tree, byOwner[owner.ID()], func(fragment richtext.Node) richtext.Node {
			return fragment.WithHover(card)
		})
	}
	return tree
}
