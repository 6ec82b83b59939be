package main

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/memohai/chatmanager/internal/chat"
	"github.com/memohai/chatmanager/internal/format"
	"github.com/memohai/chatmanager/internal/identity"
)

var (
	renderAs     string
	renderGlobal bool
)

// renderCmd renders a single chat line
var renderCmd = &cobra.Command{
	Use:   "render <text>",
	Short: "Render one chat line and print the component",
	Long: `Render one chat line through the full pipeline: formatting
permissions, the chat templates, placeholders, mentions and name hovers.`,
	Example: `  chatmanager render --as Steve "join us on [discord]"
  chatmanager render --json --global "&ahello"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderAs, "as", "Steve", "Name of the sending player")
	renderCmd.Flags().BoolVar(&renderGlobal, "global", false, "Use the global chat template")
}

func runRender(cmd *cobra.Command, args []string) error {
	var svc *chat.Service
	app := newApp(&svc)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := context.Background()
	author := identity.NewPlayer(uuid.New(), renderAs)
	if err := svc.Join(ctx, author); err != nil {
		return err
	}
	defer svc.Leave(ctx, author.ID())

	scope := format.ScopeLocal
	if renderGlobal {
		scope = format.ScopeGlobal
	}
	node := svc.Render(ctx, author, strings.Join(args, " "), scope)
	return newPrinter(cmd.OutOrStdout(), jsonOutput, showActions).Node(node)
}
