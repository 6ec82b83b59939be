// Package boot provides configuration loading and dependency wiring for the
// chat manager.
package boot

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/memohai/chatmanager/internal/capability"
	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/logger"
)

// ConfigPath is the config file the process was started with.
type ConfigPath string

// ProvideConfig loads the config file. CONFIG_PATH overrides an empty path.
func ProvideConfig(path ConfigPath) (config.Config, error) {
	p := strings.TrimSpace(string(path))
	if p == "" {
		p = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(p)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// ResolvePath returns the path the watcher should observe.
func ResolvePath(path ConfigPath) string {
	if p := strings.TrimSpace(string(path)); p != "" {
		return p
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return config.DefaultConfigPath
}

// ProvideLogger installs the process logger.
func ProvideLogger(cfg config.Config) *slog.Logger {
	return logger.Init(cfg.Log.Level, cfg.Log.Format)
}

// MetaFromConfig converts the [permissions.meta] table.
func MetaFromConfig(cfg config.PermissionsConfig) map[string]capability.Meta {
	out := make(map[string]capability.Meta, len(cfg.Meta))
	for name, m := range cfg.Meta {
		out[name] = capability.Meta{
			Prefix:        m.Prefix,
			Suffix:        m.Suffix,
			UsernameColor: m.UsernameColor,
		}
	}
	return out
}
