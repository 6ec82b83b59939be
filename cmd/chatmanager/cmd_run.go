package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/memohai/chatmanager/internal/chat"
	"github.com/memohai/chatmanager/internal/delivery"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/logger"
)

// runCmd starts an interactive session
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive chat session on stdin",
	Long: `Start the chat pipeline and read lines from stdin.

Plain lines are chat from the console; lines starting with / are commands
such as /msg or /chatmanager. Directives starting with a dot simulate
players: .join, .as, .move, .hold and more (see .help).`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func runSession(cmd *cobra.Command, _ []string) error {
	var (
		svc     *chat.Service
		hub     *delivery.Hub
		tracker *identity.Tracker
		log     *slog.Logger
	)
	app := newApp(&svc, &hub, &tracker, &log)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	out := newPrinter(cmd.OutOrStdout(), jsonOutput, showActions)
	con := newConsole(log, svc, hub, tracker, out)
	if !jsonOutput {
		out.Line("chatmanager ready, type .help for directives")
	}
	runErr := con.Run(logger.WithContext(ctx, con.logger), cmd.InOrStdin())

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	stopErr := app.Stop(stopCtx)
	con.Close()
	if runErr != nil {
		return runErr
	}
	return stopErr
}
