package boot

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/memohai/chatmanager/internal/chat"
	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/delivery"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/placeholder"
)

const firstConfig = `
[placeholders.discord]
display_text = "<blue>Discord"
click_action = "open_url"
click_value = "https://discord.gg/example"
description = "Our Discord"
`

const secondConfig = `
[placeholders.store]
display_text = "<gold>Store"
description = "Web store"

[formats]
local = "<gray>L</gray> {message}"
`

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestModule_RenderAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, firstConfig)

	var (
		svc      *chat.Service
		hub      *delivery.Hub
		registry *placeholder.Registry
	)
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(ConfigPath(path)),
		fx.Supply(slog.New(slog.NewTextHandler(io.Discard, nil))),
		Module,
		fx.Populate(&svc, &hub, &registry),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	steve := identity.NewPlayer(uuid.New(), "Steve")
	require.NoError(t, svc.Join(ctx, steve))
	_, events, cancel := hub.Subscribe(steve.ID())
	defer cancel()

	require.NoError(t, svc.HandleChat(ctx, steve, "join [discord]"))
	ev := <-events
	assert.Equal(t, "Ⓛ Steve » join Discord", ev.Message.PlainText())

	_, ok := registry.Load().Lookup("discord")
	require.True(t, ok)

	writeConfig(t, path, secondConfig)
	handled, err := svc.HandleCommand(ctx, identity.Console{}, "/chatmanager reload")
	require.True(t, handled)
	require.NoError(t, err)

	_, ok = registry.Load().Lookup("discord")
	assert.False(t, ok)
	_, ok = registry.Load().Lookup("store")
	assert.True(t, ok)

	require.NoError(t, svc.HandleChat(ctx, steve, "buy at [store]"))
	ev = <-events
	assert.Equal(t, "L Steve » buy at Store", ev.Message.PlainText())
}

func TestProvideConfig_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.toml")
	writeConfig(t, path, "[chat]\nlocal_radius = 42\n")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := ProvideConfig("")
	require.NoError(t, err)
	assert.Equal(t, 42.0, cfg.Chat.LocalRadius)
	assert.Equal(t, path, ResolvePath(""))
	assert.Equal(t, "other.toml", ResolvePath("other.toml"))
}

func TestApply_SkipsNilComponents(t *testing.T) {
	registry := placeholder.NewRegistry(nil)
	cfg := config.Default()
	cfg.Placeholders = map[string]config.PlaceholderConfig{"vote": {DisplayText: "Vote"}}

	Apply(Components{Registry: registry}, cfg)
	_, ok := registry.Load().Lookup("vote")
	assert.True(t, ok)
}

func TestMetaFromConfig(t *testing.T) {
	meta := MetaFromConfig(config.PermissionsConfig{
		Meta: map[string]config.MetaConfig{"Admin": {Prefix: "&c[Admin] ", UsernameColor: "&6"}},
	})
	assert.Equal(t, "&c[Admin] ", meta["Admin"].Prefix)
	assert.Equal(t, "&6", meta["Admin"].UsernameColor)
}
