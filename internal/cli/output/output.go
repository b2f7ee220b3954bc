// Package output renders upstream catalogue entries for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/mobbind-dev/mobbind/internal/cli/client"
)

// Formats accepted by Render
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Validate reports an error for an unknown output format
func Validate(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
}

// Render writes apps to w in the requested format
func Render(w io.Writer, format string, apps []client.App) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(apps)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(apps); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()

	case FormatTable:
		return renderTable(w, apps)
	}
	return Validate(format)
}

func renderTable(w io.Writer, apps []client.App) error {
	if len(apps) == 0 {
		_, err := fmt.Fprintln(w, "No apps found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPLATFORM\tCATEGORY\tUPDATED\tID")
	fmt.Fprintln(tw, "────\t────────\t────────\t───────\t──")

	for _, app := range apps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			field(app, "appName"),
			field(app, "platform"),
			field(app, "appCategory"),
			dateOnly(field(app, "updatedAt")),
			field(app, "id"),
		)
	}

	return tw.Flush()
}

func field(app client.App, key string) string {
	v, ok := app[key]
	if !ok || v == nil {
		return "-"
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return "-"
		}
		return s
	}
	return fmt.Sprint(v)
}

// dateOnly trims an ISO timestamp to its date part
func dateOnly(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i > 0 {
		return ts[:i]
	}
	return ts
}
