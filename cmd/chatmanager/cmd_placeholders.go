package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/memohai/chatmanager/internal/boot"
	"github.com/memohai/chatmanager/internal/placeholder"
	"github.com/memohai/chatmanager/internal/version"
)

// placeholdersCmd lists configured placeholders
var placeholdersCmd = &cobra.Command{
	Use:   "placeholders",
	Short: "List the placeholders defined in the config file",
	Args:  cobra.NoArgs,
	RunE:  runPlaceholders,
}

// versionCmd prints build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if jsonOutput {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(version.Get())
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "ChatManager %s\n", version.GetInfo())
		return err
	},
}

type placeholderRow struct {
	Key         string `json:"key"`
	Action      string `json:"action,omitempty"`
	Description string `json:"description,omitempty"`
}

func placeholderRows(set *placeholder.Set) []placeholderRow {
	var rows []placeholderRow
	if def, ok := set.Command(); ok {
		rows = append(rows, placeholderRow{Key: "[" + def.Key + "]", Action: def.ClickAction, Description: def.Description})
	}
	for _, key := range set.Keys() {
		def, _ := set.Lookup(key)
		rows = append(rows, placeholderRow{Key: "[" + key + "]", Action: def.ClickAction, Description: def.Description})
	}
	return rows
}

func runPlaceholders(cmd *cobra.Command, _ []string) error {
	cfg, err := boot.ProvideConfig(boot.ConfigPath(configPath))
	if err != nil {
		return err
	}
	rows := placeholderRows(placeholder.FromConfig(cfg))
	out := cmd.OutOrStdout()
	if jsonOutput {
		return json.NewEncoder(out).Encode(rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "no placeholders configured")
		return err
	}

	renderer := lipgloss.NewRenderer(out)
	header := renderer.NewStyle().Bold(true).Padding(0, 1)
	cell := renderer.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PLACEHOLDER", "CLICK", "DESCRIPTION").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, r := range rows {
		t.Row(r.Key, r.Action, r.Description)
	}
	_, err = fmt.Fprintln(out, t.Render())
	return err
}
