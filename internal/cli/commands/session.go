package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mobbind-dev/mobbind/internal/cli/auth"
	"github.com/mobbind-dev/mobbind/internal/cli/userconfig"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show who the saved token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.OutOrStdout(), auth.Default, server)
		},
	}

	addServerFlag(cmd, &server)
	return cmd
}

func runWhoami(out io.Writer, tokens auth.TokenStore, server string) error {
	apiClient, token, err := authenticatedClient(tokens, server)
	if err != nil {
		return err
	}

	s, err := apiClient.Session(token)
	if err != nil {
		return explain(err)
	}

	if s.Email != "" {
		fmt.Fprintf(out, "Email:   %s\n", s.Email)
	}
	if s.Subject != "" {
		fmt.Fprintf(out, "User ID: %s\n", s.Subject)
	}
	if s.ExpiresAt != nil {
		status := "valid"
		if s.Expired {
			status = "expired"
		}
		fmt.Fprintf(out, "Expires: %s (%s)\n", s.ExpiresAt.Local().Format(time.RFC1123), status)
	}
	if s.Email == "" && s.Subject == "" {
		fmt.Fprintln(out, "Logged in (token details unavailable)")
	}

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the token saved for a server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.OutOrStdout(), auth.Default, server)
		},
	}

	addServerFlag(cmd, &server)
	return cmd
}

func runLogout(out io.Writer, tokens auth.TokenStore, server string) error {
	serverURL, err := resolveServer(server)
	if err != nil {
		return err
	}

	if err := tokens.DeleteToken(serverURL); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Logged out of %s\n", serverURL)
	return nil
}

// NewUseCmd creates the use command
func NewUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <server-url>",
		Short: "Set the default mobbind server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUse(cmd.OutOrStdout(), args[0])
		},
	}
}

func runUse(out io.Writer, raw string) error {
	serverURL, err := normalizeServerURL(raw)
	if err != nil {
		return err
	}

	if err := userconfig.SetServer(serverURL); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Default server set to %s\n", serverURL)
	return nil
}
