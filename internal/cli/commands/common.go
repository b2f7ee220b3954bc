package commands

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mobbind-dev/mobbind/internal/cli/auth"
	"github.com/mobbind-dev/mobbind/internal/cli/client"
	"github.com/mobbind-dev/mobbind/internal/cli/userconfig"
)

const (
	DefaultServerURL = "http://localhost:8080"

	serverEnvVar   = "MOBBIND_SERVER"
	emailEnvVar    = "MOBBIND_EMAIL"
	passwordEnvVar = "MOBBIND_PASSWORD"
)

func addServerFlag(cmd *cobra.Command, server *string) {
	cmd.Flags().StringVar(server, "server", "", "mobbind server URL (or set "+serverEnvVar+")")
}

// resolveServer determines which server to use based on the following priority:
// 1. The --server flag
// 2. The MOBBIND_SERVER environment variable
// 3. The server saved with 'mobbind use'
// 4. http://localhost:8080
func resolveServer(serverFlag string) (string, error) {
	if serverFlag != "" {
		return normalizeServerURL(serverFlag)
	}

	if env := os.Getenv(serverEnvVar); env != "" {
		return normalizeServerURL(env)
	}

	saved, err := userconfig.GetServer()
	if err != nil {
		return "", fmt.Errorf("failed to load user config: %w", err)
	}
	if saved != "" {
		return normalizeServerURL(saved)
	}

	return DefaultServerURL, nil
}

// normalizeServerURL accepts "host:port" or a full http(s) URL
func normalizeServerURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q", raw)
	}
	return raw, nil
}

// authenticatedClient returns a client for the resolved server and the token saved for it
func authenticatedClient(tokens auth.TokenStore, serverFlag string) (*client.Client, string, error) {
	serverURL, err := resolveServer(serverFlag)
	if err != nil {
		return nil, "", err
	}

	token, err := tokens.LoadToken(serverURL)
	if err != nil {
		return nil, "", err
	}

	return client.New(serverURL), token, nil
}

// explain adds a login hint to errors caused by a rejected token
func explain(err error) error {
	var apiErr *client.Error
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		return fmt.Errorf("%w\nYour session may have expired. Run 'mobbind login' again", err)
	}
	return err
}
