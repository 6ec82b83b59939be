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

// MentionSettings configure the mention pass.
type MentionSettings struct {
	Enabled bool
	// Format renders one mention; {mention} is the matched "@name".
	Format string
}

// MentionSettingsFromConfig extracts mention settings.
func MentionSettingsFromConfig(cfg config.MentionConfig) MentionSettings {
	return MentionSettings{Enabled: cfg.Enabled, Format: cfg.Format}
}

// Mentions highlights "@name" references to online identities.
type Mentions struct {
	tracker  *identity.Tracker
	notifier *Notifier
	settings atomic.Pointer[MentionSettings]
}

// NewMentions creates the pass. A nil notifier disables notifications.
func NewMentions(tracker *identity.Tracker, notifier *Notifier, settings MentionSettings) *Mentions {
	m := &Mentions{tracker: tracker, notifier: notifier}
	m.SetSettings(settings)
	return m
}

// SetSettings swaps the settings used by later passes.
func (m *Mentions) SetSettings(s MentionSettings) {
	m.settings.Store(&s)
}

// Apply replaces every mention in tree with the mention format and queues
// one notification per mentioned identity.
func (m *Mentions) Apply(_ context.Context, tree richtext.Node) richtext.Node {
	s := m.settings.Load()
	if !s.Enabled || m.tracker == nil {
		return tree
	}
	plain := tree.PlainText()
	if !strings.Contains(plain, "@") {
		return tree
	}
	spans, owners := findNames(plain, "@", m.tracker.Online())
	if len(spans) == 0 {
		return tree
	}

	notified := map[uuid.UUID]bool{}
	for i, span := range spans {
		token := plain[span.Start:span.End]
		spans[i].Node = richtext.Parse(strings.ReplaceAll(s.Format, "{mention}", richtext.Escape(token)))

		owner := owners[[2]int{span.Start, span.End}]
		if m.notifier != nil && !notified[owner.ID()] {
			notified[owner.ID()] = true
			m.notifier.Notify(owner.ID())
		}
	}
	return richtext.ReplaceSpans(tree, spans)
}
