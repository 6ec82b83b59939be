package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/delivery"
	"github.com/memohai/chatmanager/internal/richtext"
	"github.com/memohai/chatmanager/internal/snapshot"
)

var (
	ErrViewExpired   = errors.New("view session expired")
	ErrUnknownTarget = errors.New("unknown target")
	ErrNoPermission  = errors.New("permission denied")
	ErrNotAPlayer    = errors.New("command needs a player")
)

// Deliverer sends rendered output to identities.
type Deliverer interface {
	Send(ctx context.Context, to uuid.UUID, message richtext.Node) error
	Broadcast(ctx context.Context, message richtext.Node) error
	SendNearby(ctx context.Context, n delivery.Nearby) (int, error)
	ActionBar(ctx context.Context, to uuid.UUID, message richtext.Node) error
	ShowSnapshot(ctx context.Context, to uuid.UUID, snap snapshot.Snapshot) error
}

// ReloadFunc reloads configuration on request of the reload subcommand.
type ReloadFunc func(ctx context.Context) error

// Settings are the reloadable chat settings.
type Settings struct {
	LocalRadius      float64
	GlobalPrefix     string
	MessageFormat    string
	WhisperAliases   []string
	BroadcastAliases []string
	Whisper          config.WhisperConfig
	Messages         config.MessagesConfig
}

// SettingsFromConfig extracts chat settings.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		LocalRadius:      cfg.Chat.LocalRadius,
		GlobalPrefix:     cfg.Chat.GlobalPrefix,
		MessageFormat:    cfg.Formats.Message,
		WhisperAliases:   lowerAll(cfg.Whisper.Aliases),
		BroadcastAliases: lowerAll(cfg.Whisper.BroadcastAliases),
		Whisper:          cfg.Whisper,
		Messages:         cfg.Messages,
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "/")))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Subcommands of /chatmanager offered by completion.
var Subcommands = []string{"help", "placeholders", "colors", "mentiontoggle", "reload", "info"}

// AdminCommand is the name of the management command.
const AdminCommand = "chatmanager"
