// Package main implements the rdctl CLI for the reductiond HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/reductiond/pkg/client"
)

// version information
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the global flags and the client resolved from them.
type cli struct {
	server      string
	apiKey      string
	profilePath string
	timeout     time.Duration
	jsonOutput  bool

	client *client.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "rdctl",
		Short: "CLI for reductiond HTTP server operations",
		Long: `rdctl is a command-line interface for the reductiond HTTP server.
It reduces text, compares algorithms, reads and resets statistics, and
shows a live statistics dashboard.

Connection settings come from flags, then REDUCTIOND_URL and
REDUCTIOND_API_KEY, then ~/.config/reductiond/rdctl.toml.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.connect()
		},
	}

	root.PersistentFlags().StringVar(&c.server, "server", "", "reductiond server URL (default http://localhost:8080)")
	root.PersistentFlags().StringVar(&c.apiKey, "api-key", "", "API key")
	root.PersistentFlags().StringVar(&c.profilePath, "profile", "", "profile file (default ~/.config/reductiond/rdctl.toml)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "request timeout (default 30s)")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "Output results as JSON")

	root.AddCommand(
		newCompressCmd(c),
		newBatchCmd(c),
		newAnalyzeCmd(c),
		newStatsCmd(c),
		newResetCmd(c),
		newHealthCmd(c),
		newWatchCmd(c),
	)
	return root
}

// connect resolves the connection settings and builds the client.
func (c *cli) connect() error {
	path := c.profilePath
	if path == "" {
		var err error
		if path, err = defaultProfilePath(); err != nil {
			return err
		}
	}
	profile, err := loadProfile(path)
	if err != nil {
		return err
	}
	c.client = resolve(c.server, c.apiKey, c.timeout, profile).client()
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
