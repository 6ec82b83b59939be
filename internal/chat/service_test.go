package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/chatmanager/internal/action"
	"github.com/memohai/chatmanager/internal/annotate"
	"github.com/memohai/chatmanager/internal/capability"
	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/delivery"
	"github.com/memohai/chatmanager/internal/format"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/placeholder"
	"github.com/memohai/chatmanager/internal/richtext"
	"github.com/memohai/chatmanager/internal/snapshot"
	"github.com/memohai/chatmanager/internal/substitute"
	"github.com/memohai/chatmanager/internal/viewsession"
)

type harness struct {
	svc      *Service
	hub      *delivery.Hub
	store    *viewsession.Store
	registry *placeholder.Registry
	notifier *annotate.Notifier
	players  map[string]*identity.Player
	inbox    map[string]<-chan delivery.Event
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Placeholders = map[string]config.PlaceholderConfig{
		"inv":  {DisplayText: "<gold>[inv]", ClickAction: "show_inv", Description: "Show inventory"},
		"item": {DisplayText: "[{item}]", Description: "Held item"},
	}
	return cfg
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := identity.NewTracker()
	hub := delivery.NewHub(tracker)
	store := viewsession.NewStore()
	registry := placeholder.NewRegistry(placeholder.FromConfig(cfg))
	caps := capability.NewStaticProvider(cfg.Chat.PermissionNamespace, nil, map[string][]string{
		"steve": {"chatmanager.color.basic"},
		"spy":   {"chatmanager.local.listener"},
		"admin": {"chatmanager.reload"},
	})
	renderer := format.NewRenderer(caps, nil, format.TemplatesFromConfig(cfg.Formats))
	builder := action.NewBuilder(log, store, nil, action.SettingsFromConfig(cfg))
	notifier := annotate.NewNotifier(log, hub, annotate.NotifierConfigFromConfig(cfg.Mentions))

	h := &harness{
		hub:      hub,
		store:    store,
		registry: registry,
		notifier: notifier,
		players:  map[string]*identity.Player{},
		inbox:    map[string]<-chan delivery.Event{},
	}
	h.svc = NewService(log, Deps{
		Tracker:  tracker,
		Renderer: renderer,
		Engine:   substitute.NewEngine(registry, builder),
		Registry: registry,
		Store:    store,
		Mentions: annotate.NewMentions(tracker, notifier, annotate.MentionSettingsFromConfig(cfg.Mentions)),
		Hovers:   annotate.NewHovers(tracker, annotate.HoverSettingsFromConfig(cfg.Hover)),
		Notifier: notifier,
		Out:      hub,
	}, SettingsFromConfig(cfg))

	_, console, cancel := hub.Subscribe(uuid.Nil)
	t.Cleanup(cancel)
	h.inbox["Console"] = console
	return h
}

func (h *harness) join(t *testing.T, name string, pos identity.Position) *identity.Player {
	t.Helper()
	p := identity.NewPlayer(uuid.New(), name)
	p.MoveTo(pos)
	require.NoError(t, h.svc.Join(context.Background(), p))
	_, ch, cancel := h.hub.Subscribe(p.ID())
	t.Cleanup(cancel)
	h.players[name] = p
	h.inbox[name] = ch
	return p
}

// drain returns the events waiting for name.
func (h *harness) drain(name string) []delivery.Event {
	var out []delivery.Event
	for {
		select {
		case ev := <-h.inbox[name]:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (h *harness) texts(name string) []string {
	var out []string
	for _, ev := range h.drain(name) {
		if ev.Message != nil {
			out = append(out, ev.Message.PlainText())
		}
	}
	return out
}

func world(x float64) identity.Position {
	return identity.Position{World: "world", X: x}
}

func TestHandleChat_LocalRadiusAndListeners(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	h.join(t, "Alex", world(50))
	h.join(t, "Bob", world(200))
	h.join(t, "Spy", identity.Position{World: "nether"})

	require.NoError(t, h.svc.HandleChat(context.Background(), steve, "&chello [/spawn]"))

	want := "Ⓛ Steve » hello [/spawn]"
	assert.Equal(t, []string{want}, h.texts("Steve"))
	assert.Equal(t, []string{want}, h.texts("Alex"))
	assert.Empty(t, h.texts("Bob"))
	assert.Equal(t, []string{"[far] " + want}, h.texts("Spy"))
	assert.Equal(t, []string{want}, h.texts("Console"))
}

func TestHandleChat_GlobalPrefix(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	h.join(t, "Bob", world(5000))

	require.NoError(t, h.svc.HandleChat(context.Background(), steve, "!  hi all"))
	assert.Equal(t, []string{"Ⓖ Steve » hi all"}, h.texts("Bob"))
	assert.Equal(t, []string{"Ⓖ Steve » hi all"}, h.texts("Console"))

	require.NoError(t, h.svc.HandleChat(context.Background(), steve, "!   "))
	assert.Empty(t, h.texts("Bob"))
}

func TestHandleChat_PlaceholderCapturesSnapshot(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	alex := h.join(t, "Alex", world(1))

	require.NoError(t, h.svc.HandleChat(context.Background(), steve, "look [INV]"))
	events := h.drain("Alex")
	require.Len(t, events, 1)

	var click *richtext.ClickAction
	for _, run := range events[0].Message.Runs() {
		if run.Text == "[inv]" {
			click = run.Click
		}
	}
	require.NotNil(t, click)
	assert.Equal(t, action.OpenViewClick(steve.ID(), snapshot.KindInventory), click.Value)

	handled, err := h.svc.HandleCommand(context.Background(), alex, click.Value)
	require.True(t, handled)
	require.NoError(t, err)
	views := h.drain("Alex")
	require.Len(t, views, 1)
	assert.Equal(t, delivery.EventView, views[0].Type)
	assert.Equal(t, snapshot.InventorySize, views[0].Snapshot.Size)
}

func TestWhisper(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	h.join(t, "Alex", world(9999))

	handled, err := h.svc.HandleCommand(context.Background(), steve, "/msg alex hey &lthere")
	require.True(t, handled)
	require.NoError(t, err)

	assert.Equal(t, []string{"[me -> Alex] hey there"}, h.texts("Steve"))
	events := h.drain("Alex")
	require.Len(t, events, 1)
	assert.Equal(t, "[from Steve] hey there", events[0].Message.PlainText())

	var reply *richtext.Run
	for _, run := range events[0].Message.Runs() {
		if run.Click != nil {
			reply = &run
			break
		}
	}
	require.NotNil(t, reply)
	assert.Equal(t, richtext.ClickSuggestCommand, reply.Click.Kind)
	assert.Equal(t, "/msg Steve ", reply.Click.Value)
	require.NotNil(t, reply.Hover)
	assert.Equal(t, "Click to reply", reply.Hover.PlainText())
}

func TestWhisper_FromConsoleAndUnknownTarget(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))

	require.NoError(t, h.svc.Whisper(context.Background(), identity.Console{}, "tell", "steve", "&6restart soon"))
	assert.Equal(t, []string{"[from Console] restart soon"}, h.texts("Steve"))

	err := h.svc.Whisper(context.Background(), steve, "msg", "nobody", "hi")
	assert.True(t, errors.Is(err, ErrUnknownTarget))
	assert.Equal(t, []string{"Player not found."}, h.texts("Steve"))

	// Missing text is ignored.
	handled, err := h.svc.HandleCommand(context.Background(), steve, "/w Steve")
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Empty(t, h.texts("Steve"))
}

func TestBroadcast(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	h.join(t, "Bob", world(5000))

	handled, err := h.svc.HandleCommand(context.Background(), steve, "/bc &6Server &lrestart")
	require.True(t, handled)
	require.NoError(t, err)
	assert.Equal(t, []string{"Server restart"}, h.texts("Bob"))
	assert.Equal(t, []string{"Server restart"}, h.texts("Console"))

	handled, err = h.svc.HandleCommand(context.Background(), steve, "/spawn")
	assert.False(t, handled)
	assert.NoError(t, err)
}

func TestAdmin_Messages(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	ctx := context.Background()

	require.NoError(t, h.svc.Admin(ctx, steve, []string{"foo"}))
	assert.Equal(t, []string{"Unknown command."}, h.texts("Steve"))

	require.NoError(t, h.svc.Admin(ctx, steve, nil))
	help := h.texts("Steve")
	require.Len(t, help, 1)
	assert.Contains(t, help[0], "/chatmanager help")

	require.NoError(t, h.svc.Admin(ctx, steve, []string{"INFO"}))
	info := h.texts("Steve")
	require.Len(t, info, 1)
	assert.Contains(t, info[0], "Local radius: 100")
	assert.Contains(t, info[0], "Format: {prefix}{username-color}{displayname}")

	require.NoError(t, h.svc.Admin(ctx, steve, []string{"placeholders"}))
	assert.Equal(t, []string{
		"Placeholders:\n[/command] - Clickable command\n[inv] - Show inventory\n[item] - Held item",
	}, h.texts("Steve"))

	h.registry.Replace(nil)
	require.NoError(t, h.svc.Admin(ctx, steve, []string{"placeholders"}))
	assert.Equal(t, []string{"No placeholders configured."}, h.texts("Steve"))

	require.NoError(t, h.svc.Admin(ctx, steve, []string{"colors"}))
	assert.Len(t, h.texts("Steve"), 1)
}

func TestAdmin_MentionToggle(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	ctx := context.Background()

	require.NoError(t, h.svc.Admin(ctx, steve, []string{"mentiontoggle"}))
	assert.Equal(t, []string{"Mention notifications disabled"}, h.texts("Steve"))
	assert.False(t, h.notifier.Enabled(steve.ID()))

	require.NoError(t, h.svc.Admin(ctx, steve, []string{"mentiontoggle"}))
	assert.Equal(t, []string{"Mention notifications enabled"}, h.texts("Steve"))

	assert.ErrorIs(t, h.svc.Admin(ctx, identity.Console{}, []string{"mentiontoggle"}), ErrNotAPlayer)
}

func TestAdmin_Reload(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	admin := h.join(t, "Admin", world(0))
	ctx := context.Background()

	calls := 0
	h.svc.SetReloader(func(context.Context) error {
		calls++
		if calls == 2 {
			return errors.New("bad <toml>")
		}
		return nil
	})

	assert.ErrorIs(t, h.svc.Admin(ctx, steve, []string{"reload"}), ErrNoPermission)
	assert.Equal(t, []string{"You do not have permission."}, h.texts("Steve"))
	assert.Zero(t, calls)

	require.NoError(t, h.svc.Admin(ctx, admin, []string{"reload"}))
	assert.Equal(t, []string{"Configuration reloaded."}, h.texts("Admin"))

	require.NoError(t, h.svc.Admin(ctx, identity.Console{}, []string{"reload"}))
	assert.Equal(t, []string{"Reload failed: bad <toml>"}, h.texts("Console"))
	assert.Equal(t, 2, calls)
}

func TestAdmin_OpenInv(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	ctx := context.Background()

	// Wrong arity is ignored.
	require.NoError(t, h.svc.Admin(ctx, steve, []string{"openinv", steve.ID().String()}))
	assert.Empty(t, h.drain("Steve"))

	require.NoError(t, h.svc.Admin(ctx, steve, []string{"openinv", "not-a-uuid", "inventory"}))
	assert.Equal(t, []string{"Unknown command."}, h.texts("Steve"))

	require.NoError(t, h.svc.Admin(ctx, steve, []string{"openinv", steve.ID().String(), "backpack"}))
	assert.Equal(t, []string{"Unknown command."}, h.texts("Steve"))

	err := h.svc.Admin(ctx, steve, []string{"openinv", steve.ID().String(), "ender"})
	assert.ErrorIs(t, err, ErrViewExpired)
	assert.Equal(t, []string{"This view has expired."}, h.texts("Steve"))

	h.store.Put(steve.ID(), snapshot.KindEnder, snapshot.Snapshot{Kind: snapshot.KindEnder, Size: snapshot.EnderSize})
	require.NoError(t, h.svc.Admin(ctx, steve, []string{"openinv", steve.ID().String(), "show_ender"}))
	events := h.drain("Steve")
	require.Len(t, events, 1)
	assert.Equal(t, delivery.EventView, events[0].Type)
}

func TestComplete(t *testing.T) {
	h := newHarness(t, testConfig())

	assert.Equal(t, []string{"reload"}, h.svc.Complete("/chatmanager re"))
	assert.Equal(t, Subcommands, h.svc.Complete("/chatmanager "))
	assert.Nil(t, h.svc.Complete("/chatmanager reload x"))
	assert.Equal(t, []string{"[inv]", "[item]"}, h.svc.Complete("look at [i"))
	assert.Equal(t, []string{"[item]"}, h.svc.Complete("[ITE"))
	assert.Nil(t, h.svc.Complete("/msg [i"))
}

func TestLeave(t *testing.T) {
	h := newHarness(t, testConfig())
	steve := h.join(t, "Steve", world(0))
	h.svc.Leave(context.Background(), steve.ID())

	err := h.svc.Whisper(context.Background(), identity.Console{}, "msg", "Steve", "hi")
	assert.ErrorIs(t, err, ErrUnknownTarget)
	assert.Equal(t, []string{"Player not found."}, h.texts("Console"))
}
