package annotate

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/richtext"
)

type recorder struct {
	mu   sync.Mutex
	sent []uuid.UUID
	text []string
}

func (r *recorder) ActionBar(_ context.Context, to uuid.UUID, message richtext.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	r.text = append(r.text, message.PlainText())
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func online(t *testing.T, names ...string) (*identity.Tracker, map[string]*identity.Player) {
	t.Helper()
	tracker := identity.NewTracker()
	players := map[string]*identity.Player{}
	for _, name := range names {
		p := identity.NewPlayer(uuid.New(), name)
		require.NoError(t, tracker.Add(p))
		players[name] = p
	}
	return tracker, players
}

func TestMentions_Apply(t *testing.T) {
	tracker, players := online(t, "Steve", "Alex")
	notifier := NewNotifier(discard(), &recorder{}, NotifierConfig{QueueSize: 8, Burst: 5})
	m := NewMentions(tracker, notifier, MentionSettings{Enabled: true, Format: "<aqua>{mention}</aqua>"})

	tree := richtext.Parse("<gray>hi @Steve and @Steve, not @Steven or me@Alex")
	out := m.Apply(context.Background(), tree)
	assert.Equal(t, tree.PlainText(), out.PlainText())

	var aqua []string
	for _, run := range out.Runs() {
		if run.Style.Color == "aqua" {
			aqua = append(aqua, run.Text)
		}
	}
	assert.Equal(t, []string{"@Steve", "@Steve"}, aqua)

	// One notification per mentioned identity and message.
	require.Len(t, notifier.queue, 1)
	assert.Equal(t, players["Steve"].ID(), <-notifier.queue)
}

func TestMentions_DisplayNameAndLongestFirst(t *testing.T) {
	tracker, players := online(t, "Ste", "Steve")
	players["Steve"].SetDisplayName("Captain")
	m := NewMentions(tracker, nil, MentionSettings{Enabled: true, Format: "<gold>{mention}"})

	out := m.Apply(context.Background(), richtext.Text("@Captain @Steve @Ste"))
	var gold []string
	for _, run := range out.Runs() {
		if run.Style.Color == "gold" {
			gold = append(gold, run.Text)
		}
	}
	assert.Equal(t, []string{"@Captain", "@Steve", "@Ste"}, gold)
}

func TestMentions_Disabled(t *testing.T) {
	tracker, _ := online(t, "Steve")
	m := NewMentions(tracker, nil, MentionSettings{Enabled: false, Format: "<aqua>{mention}"})
	tree := richtext.Text("@Steve")
	assert.Equal(t, tree, m.Apply(context.Background(), tree))
}

func TestHovers_Apply(t *testing.T) {
	tracker, players := online(t, "Steve")
	players["Steve"].SetDisplayName("Cap")
	h := NewHovers(tracker, HoverSettings{Enabled: true, Text: "<gray>{player} ({name})"})

	tree := richtext.Parse("ask Steve or Cap, not Steves").WithClick(richtext.ClickAction{Kind: richtext.ClickRunCommand, Value: "/x"})
	out := h.Apply(context.Background(), tree)
	assert.Equal(t, tree.PlainText(), out.PlainText())

	var hovered []string
	for _, run := range out.Runs() {
		require.NotNil(t, run.Click, "click is kept on %q", run.Text)
		assert.Equal(t, "/x", run.Click.Value)
		if run.Hover != nil {
			hovered = append(hovered, run.Text)
			assert.Equal(t, "Cap (Steve)", run.Hover.PlainText())
		}
	}
	assert.Equal(t, []string{"Steve", "Cap"}, hovered)
}

func TestHovers_KeepsStyleAcrossRuns(t *testing.T) {
	tracker, _ := online(t, "Steve")
	h := NewHovers(tracker, HoverSettings{Enabled: true, Text: "{name}"})
	out := h.Apply(context.Background(), richtext.Parse("<red>St<bold>eve"))

	runs := out.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, "red", runs[0].Style.Color)
	assert.NotNil(t, runs[0].Hover)
	assert.True(t, runs[1].Style.Bold.Enabled())
	assert.NotNil(t, runs[1].Hover)
}

func TestNotifier_ToggleAndRateLimit(t *testing.T) {
	n := NewNotifier(discard(), &recorder{}, NotifierConfig{QueueSize: 1, PerSecond: 0.001, Burst: 2})
	id := uuid.New()

	assert.True(t, n.Enabled(id))
	assert.False(t, n.Toggle(id))
	assert.False(t, n.Notify(id))
	assert.True(t, n.Toggle(id))

	assert.True(t, n.Notify(id))
	// Queue full: dropped, not blocked.
	assert.False(t, n.Notify(id))
	<-n.queue
	// Burst of two spent.
	assert.False(t, n.Notify(id))

	n.Forget(id)
	assert.True(t, n.Notify(id))
}

func TestNotifier_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{}
	n := NewNotifier(discard(), rec, NotifierConfig{QueueSize: 4, Burst: 3, Message: "<gold>You were mentioned"})
	require.NoError(t, n.Start(context.Background()))
	assert.Error(t, n.Start(context.Background()))

	id := uuid.New()
	n.Notify(id)
	n.Notify(id)
	assert.Eventually(t, func() bool { return rec.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	rec.mu.Lock()
	assert.Equal(t, "You were mentioned", rec.text[0])
	rec.mu.Unlock()

	require.NoError(t, n.Stop())
	require.NoError(t, n.Stop())
}
