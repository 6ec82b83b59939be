// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath          = "config.toml"
	DefaultEnvPrefix           = "CHATMANAGER_"
	DefaultPermissionNamespace = "chatmanager"
	DefaultLocalRadius         = 100
	DefaultGlobalPrefix        = "!"
	DefaultMessageFormat       = "{prefix}{username-color}{displayname}{suffix}<dark_gray> »<reset> {message}"
	DefaultLocalFormat         = "<yellow>Ⓛ</yellow> {message}"
	DefaultGlobalFormat        = "<green>Ⓖ</green> {message}"
	DefaultCommandDisplay      = "<aqua>[<yellow>{command}<aqua>]<reset>"
	DefaultCommandHover        = "<yellow>Click to use this command!"
	DefaultCommandClickAction  = "suggest_command"
	DefaultViewSessionTTL      = 5 * time.Minute
	DefaultSweepInterval       = time.Minute
	DefaultWatchDebounce       = 500 * time.Millisecond
	DefaultLocale              = "en_us"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log          LogConfig                    `toml:"log" envPrefix:"LOG_"`
	Chat         ChatConfig                   `toml:"chat" envPrefix:"CHAT_"`
	Formats      FormatsConfig                `toml:"formats" envPrefix:"FORMAT_"`
	Commands     CommandConfig                `toml:"commands" envPrefix:"COMMANDS_"`
	Placeholders map[string]PlaceholderConfig `toml:"placeholders"`
	ViewSessions ViewSessionConfig            `toml:"view_sessions" envPrefix:"VIEW_"`
	Mentions     MentionConfig                `toml:"mentions" envPrefix:"MENTIONS_"`
	Hover        HoverConfig                  `toml:"hover" envPrefix:"HOVER_"`
	Whisper      WhisperConfig                `toml:"whisper"`
	Permissions  PermissionsConfig            `toml:"permissions"`
	Locale       LocaleConfig                 `toml:"locale" envPrefix:"LOCALE_"`
	Watch        WatchConfig                  `toml:"watch" envPrefix:"WATCH_"`
	Messages     MessagesConfig               `toml:"messages"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

// ChatConfig holds the local chat radius, the global chat prefix and the
// permission namespace capability names are qualified with.
type ChatConfig struct {
	LocalRadius         float64 `toml:"local_radius" env:"LOCAL_RADIUS"`
	GlobalPrefix        string  `toml:"global_prefix" env:"GLOBAL_PREFIX"`
	PermissionNamespace string  `toml:"permission_namespace" env:"PERMISSION_NAMESPACE"`
}

// FormatsConfig holds the message template and the per-scope wrappers.
type FormatsConfig struct {
	Message string `toml:"message" env:"MESSAGE"`
	Local   string `toml:"local" env:"LOCAL"`
	Global  string `toml:"global" env:"GLOBAL"`
}

// CommandConfig holds the reserved [/command] placeholder.
type CommandConfig struct {
	Enabled     bool   `toml:"enabled" env:"ENABLED"`
	DisplayText string `toml:"display_text"`
	HoverText   string `toml:"hover_text"`
	ClickAction string `toml:"click_action"`
	ClickValue  string `toml:"click_value"`
	Description string `toml:"description"`
}

// PlaceholderConfig is one [key] placeholder definition.
type PlaceholderConfig struct {
	DisplayText    string `toml:"display_text"`
	HoverText      string `toml:"hover_text"`
	ClickAction    string `toml:"click_action"`
	ClickValue     string `toml:"click_value"`
	InventoryTitle string `toml:"inventory_title"`
	Description    string `toml:"description"`
}

// ViewSessionConfig holds snapshot session lifetime and sweep period.
type ViewSessionConfig struct {
	TTL           time.Duration `toml:"ttl" env:"TTL"`
	SweepInterval time.Duration `toml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

// MentionConfig holds the @mention pass settings.
type MentionConfig struct {
	Enabled      bool    `toml:"enabled" env:"ENABLED"`
	Format       string  `toml:"format"`
	Notification string  `toml:"notification"`
	QueueSize    int     `toml:"queue_size" env:"QUEUE_SIZE"`
	PerSecond    float64 `toml:"per_second" env:"PER_SECOND"`
	Burst        int     `toml:"burst" env:"BURST"`
}

// HoverConfig holds the name hover pass settings.
type HoverConfig struct {
	Enabled bool   `toml:"enabled" env:"ENABLED"`
	Text    string `toml:"text"`
}

// WhisperConfig holds private message and broadcast settings.
type WhisperConfig struct {
	Aliases          []string `toml:"aliases"`
	BroadcastAliases []string `toml:"broadcast_aliases"`
	Incoming         string   `toml:"incoming"`
	IncomingConsole  string   `toml:"incoming_console"`
	Outgoing         string   `toml:"outgoing"`
	ReplyHover       string   `toml:"reply_hover"`
}

// PermissionsConfig holds static capability grants and decorator metadata
// used when no external permission service is wired in.
type PermissionsConfig struct {
	Defaults []string              `toml:"defaults"`
	Players  map[string][]string   `toml:"players"`
	Meta     map[string]MetaConfig `toml:"meta"`
}

// MetaConfig is the decorator metadata of one identity.
type MetaConfig struct {
	Prefix        string `toml:"prefix"`
	Suffix        string `toml:"suffix"`
	UsernameColor string `toml:"username_color"`
}

// LocaleConfig holds the fallback locale for item names.
type LocaleConfig struct {
	Default string `toml:"default" env:"DEFAULT"`
}

// WatchConfig controls hot reload of the config file.
type WatchConfig struct {
	Enabled  bool          `toml:"enabled" env:"ENABLED"`
	Debounce time.Duration `toml:"debounce" env:"DEBOUNCE"`
}

// MessagesConfig holds user-facing strings.
type MessagesConfig struct {
	Help               string `toml:"help"`
	Info               string `toml:"info"`
	Colors             string `toml:"colors"`
	UnknownCommand     string `toml:"unknown_command"`
	NoPermission       string `toml:"no_permission"`
	ReloadSuccess      string `toml:"reload_success"`
	ReloadError        string `toml:"reload_error"`
	ViewExpired        string `toml:"view_expired"`
	PlayerNotFound     string `toml:"player_not_found"`
	BypassPrefix       string `toml:"bypass_prefix"`
	PlaceholdersHeader string `toml:"placeholders_header"`
	PlaceholderLine    string `toml:"placeholder_line"`
	PlaceholdersEmpty  string `toml:"placeholders_empty"`
	MentionToggle      string `toml:"mention_toggle"`
	MentionEnabled     string `toml:"mention_enabled"`
	MentionDisabled    string `toml:"mention_disabled"`
	ItemEmpty          string `toml:"item_empty"`
	Item               string `toml:"item"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Chat: ChatConfig{
			LocalRadius:         DefaultLocalRadius,
			GlobalPrefix:        DefaultGlobalPrefix,
			PermissionNamespace: DefaultPermissionNamespace,
		},
		Formats: FormatsConfig{
			Message: DefaultMessageFormat,
			Local:   DefaultLocalFormat,
			Global:  DefaultGlobalFormat,
		},
		Commands: CommandConfig{
			Enabled:     true,
			DisplayText: DefaultCommandDisplay,
			HoverText:   DefaultCommandHover,
			ClickAction: DefaultCommandClickAction,
			ClickValue:  "{command}",
			Description: "Clickable command",
		},
		ViewSessions: ViewSessionConfig{
			TTL:           DefaultViewSessionTTL,
			SweepInterval: DefaultSweepInterval,
		},
		Mentions: MentionConfig{
			Enabled:      true,
			Format:       "<aqua>{mention}</aqua>",
			Notification: "<gradient:gold:yellow>You were mentioned in chat!</gradient>",
			QueueSize:    256,
			PerSecond:    1,
			Burst:        3,
		},
		Hover: HoverConfig{
			Enabled: true,
			Text:    "<gray>Player <yellow>{player}</yellow>",
		},
		Whisper: WhisperConfig{
			Aliases:          []string{"msg", "m", "tell", "w"},
			BroadcastAliases: []string{"bc"},
			Incoming:         "<gold>[<hover:show_text:'{reply-hover}'><click:suggest_command:'/{alias} {sender} '>from <red>{sender}</click></hover><gold>]<reset> ",
			IncomingConsole:  "<gold>[from <red>{sender}<gold>]<reset> ",
			Outgoing:         "<gold>[<red>me <gold>-> <red>{target}<gold>] <reset>",
			ReplyHover:       "<yellow>Click to reply",
		},
		Locale: LocaleConfig{
			Default: DefaultLocale,
		},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
		},
		Messages: MessagesConfig{
			Help:               "<gold>ChatManager</gold>\n<yellow>/chatmanager help|info|colors|placeholders|mentiontoggle|reload",
			Info:               "<gold>ChatManager <yellow>{version}\n<gray>Local radius: <white>{radius}\n<gray>Format: <white>{format}",
			Colors:             "<black>&0 <dark_blue>&1 <dark_green>&2 <dark_aqua>&3 <dark_red>&4 <dark_purple>&5 <gold>&6 <gray>&7\n<dark_gray>&8 <blue>&9 <green>&a <aqua>&b <red>&c <light_purple>&d <yellow>&e <white>&f\n<reset><bold>&l</bold> <italic>&o</italic> <underlined>&n</underlined> <strikethrough>&m</strikethrough> &k &r",
			UnknownCommand:     "<red>Unknown command.",
			NoPermission:       "<red>You do not have permission.",
			ReloadSuccess:      "<green>Configuration reloaded.",
			ReloadError:        "<red>Reload failed: {error}",
			ViewExpired:        "<red>This view has expired.",
			PlayerNotFound:     "<red>Player not found.",
			BypassPrefix:       "<gray>[far] ",
			PlaceholdersHeader: "<gold>Placeholders:",
			PlaceholderLine:    "<yellow>[{key}] <gray>- {description}",
			PlaceholdersEmpty:  "<gray>No placeholders configured.",
			MentionToggle:      "<gray>Mention notifications {status}",
			MentionEnabled:     "<green>enabled",
			MentionDisabled:    "<red>disabled",
			ItemEmpty:          "<gray>Empty",
			Item:               "<green>{name}{count}",
		},
	}
}

// Load reads and parses the TOML config file at path, applies default values
// for missing fields and then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := ApplyEnv(&cfg, DefaultEnvPrefix); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, nil
}

// ApplyEnv overrides scalar settings from environment variables such as
// CHATMANAGER_CHAT_LOCAL_RADIUS.
func ApplyEnv(cfg *Config, prefix string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	if c.Chat.LocalRadius <= 0 {
		c.Chat.LocalRadius = DefaultLocalRadius
	}
	if c.ViewSessions.TTL <= 0 {
		c.ViewSessions.TTL = DefaultViewSessionTTL
	}
	if c.ViewSessions.SweepInterval <= 0 {
		c.ViewSessions.SweepInterval = DefaultSweepInterval
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultWatchDebounce
	}
	c.Chat.PermissionNamespace = strings.TrimSuffix(strings.TrimSpace(c.Chat.PermissionNamespace), ".")
	placeholders := make(map[string]PlaceholderConfig, len(c.Placeholders))
	for key, ph := range c.Placeholders {
		placeholders[strings.ToLower(strings.TrimSpace(key))] = ph
	}
	c.Placeholders = placeholders
}
