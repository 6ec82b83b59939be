package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/chatmanager/internal/boot"
	"github.com/memohai/chatmanager/internal/config"
)

var (
	configPath  string
	jsonOutput  bool
	showActions bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "chatmanager",
	Short: "Chat formatting, placeholders, mentions and private messages",
	Long: `ChatManager renders chat lines with per-player formatting, expands
[placeholders] into clickable components, highlights @mentions and relays
private messages.

Start an interactive session with 'chatmanager run', or render a single
line with 'chatmanager render'.`,
	SilenceUsage: true,
}

func init() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = config.DefaultConfigPath
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to config.toml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print rendered components as JSON")
	rootCmd.PersistentFlags().BoolVar(&showActions, "show-actions", false, "Show click actions after clickable text")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(placeholdersCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp builds the application graph and fills targets from it.
func newApp(targets ...any) *fx.App {
	return fx.New(
		fx.Supply(boot.ConfigPath(configPath)),
		fx.Provide(boot.ProvideLogger),
		boot.Module,
		fx.Populate(targets...),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
}
