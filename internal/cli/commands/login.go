package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobbind-dev/mobbind/internal/cli/auth"
	"github.com/mobbind-dev/mobbind/internal/cli/client"
)

type loginOptions struct {
	server   string
	email    string
	password string
	otp      bool
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the upstream through a mobbind server",
		Long: `Sign in with email and password, or with --otp to receive a one-time code by email.

The token is stored in your OS keychain and used by the search, latest and whoami commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.OutOrStdout(), newTerminalPrompter(), auth.Default, opts)
		},
	}

	addServerFlag(cmd, &opts.server)
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address (or set "+emailEnvVar+")")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set "+passwordEnvVar+", will prompt if not provided)")
	cmd.Flags().BoolVar(&opts.otp, "otp", false, "Sign in with a one-time code sent by email instead of a password")

	return cmd
}

func runLogin(out io.Writer, p prompter, tokens auth.TokenStore, opts loginOptions) error {
	// Check for environment variables (useful for CI/CD)
	if opts.email == "" {
		opts.email = os.Getenv(emailEnvVar)
	}
	if opts.password == "" && !opts.otp {
		opts.password = os.Getenv(passwordEnvVar)
	}

	if opts.email == "" {
		email, err := p.Prompt("Email: ", false)
		if err != nil || email == "" {
			return fmt.Errorf("email is required (use --email flag or %s env var)", emailEnvVar)
		}
		opts.email = email
	}

	serverURL, err := resolveServer(opts.server)
	if err != nil {
		return err
	}
	apiClient := client.New(serverURL)

	var loginResp *client.LoginResponse
	if opts.otp {
		loginResp, err = loginWithOTP(out, p, apiClient, opts.email)
	} else {
		loginResp, err = loginWithPassword(p, apiClient, opts)
	}
	if err != nil {
		return err
	}

	if err := tokens.SaveToken(serverURL, loginResp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	fmt.Fprintln(out, "✓ Login successful!")
	if email := loginResp.Email(); email != "" {
		fmt.Fprintf(out, "  User: %s\n", email)
	}
	fmt.Fprintf(out, "  Server: %s\n", serverURL)

	return nil
}

func loginWithPassword(p prompter, apiClient *client.Client, opts loginOptions) (*client.LoginResponse, error) {
	if opts.password == "" {
		password, err := p.Prompt("Password: ", true)
		if errors.Is(err, errNonInteractive) {
			return nil, fmt.Errorf("password is required in non-interactive mode (use --password flag or %s env var)", passwordEnvVar)
		}
		if err != nil {
			return nil, err
		}
		opts.password = password
	}

	loginResp, err := apiClient.LoginWithPassword(opts.email, opts.password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return loginResp, nil
}

func loginWithOTP(out io.Writer, p prompter, apiClient *client.Client, email string) (*client.LoginResponse, error) {
	if err := apiClient.SendOTP(email); err != nil {
		return nil, fmt.Errorf("failed to send one-time code: %w", err)
	}
	fmt.Fprintf(out, "One-time code sent to %s\n", email)

	code, err := p.Prompt("Code: ", false)
	if errors.Is(err, errNonInteractive) {
		return nil, fmt.Errorf("the one-time code must be entered interactively")
	}
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("one-time code is required")
	}

	loginResp, err := apiClient.VerifyOTP(email, code)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return loginResp, nil
}
