package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mobbind-dev/mobbind/internal/cli/auth"
	"github.com/mobbind-dev/mobbind/internal/cli/output"
)

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	var server, platform, format string

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search apps by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.OutOrStdout(), auth.Default, server, strings.Join(args, " "), platform, format)
		},
	}

	addServerFlag(cmd, &server)
	cmd.Flags().StringVar(&platform, "platform", "", "ios, android or web (server default if not specified)")
	cmd.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format: table, json or yaml")

	return cmd
}

func runSearch(out io.Writer, tokens auth.TokenStore, server, query, platform, format string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}
	if err := output.Validate(format); err != nil {
		return err
	}

	apiClient, token, err := authenticatedClient(tokens, server)
	if err != nil {
		return err
	}

	apps, err := apiClient.Search(token, query, platform)
	if err != nil {
		return explain(err)
	}

	return output.Render(out, format, apps)
}

// NewLatestCmd creates the latest command
func NewLatestCmd() *cobra.Command {
	var server, platform, format string
	var limit int

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "List the most recently updated apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatest(cmd.OutOrStdout(), auth.Default, server, limit, platform, format)
		},
	}

	addServerFlag(cmd, &server)
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of apps to list (1-100)")
	cmd.Flags().StringVar(&platform, "platform", "", "ios, android or web (server default if not specified)")
	cmd.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format: table, json or yaml")

	return cmd
}

func runLatest(out io.Writer, tokens auth.TokenStore, server string, limit int, platform, format string) error {
	if limit < 1 || limit > 100 {
		return fmt.Errorf("limit must be between 1 and 100, got %d", limit)
	}
	if err := output.Validate(format); err != nil {
		return err
	}

	apiClient, token, err := authenticatedClient(tokens, server)
	if err != nil {
		return err
	}

	apps, err := apiClient.Latest(token, limit, platform)
	if err != nil {
		return explain(err)
	}

	return output.Render(out, format, apps)
}
