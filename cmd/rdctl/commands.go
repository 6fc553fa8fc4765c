package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/reductiond/internal/monitor"
)

// readInput returns the text of the file named by args[0], or stdin when no
// file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		content []byte
		err     error
	)
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}
	if len(content) == 0 {
		return "", fmt.Errorf("no content to reduce")
	}
	return string(content), nil
}

func newCompressCmd(c *cli) *cobra.Command {
	var algorithm, text string

	cmd := &cobra.Command{
		Use:   "compress [file]",
		Short: "Reduce a file, stdin or --text",
		Long: `Reduce text with one algorithm and print the result.

The reduced text goes to stdout, the savings summary to stderr.

Examples:
  # Reduce a file with the default (semantic) algorithm
  rdctl compress notes.txt

  # Reduce stdin aggressively
  cat output.log | rdctl compress - --algorithm aggressive

  # Reduce an inline string and print the full response
  rdctl compress --text "the quick brown fox" --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				var err error
				if text, err = readInput(cmd, args); err != nil {
					return err
				}
			}

			res, err := c.client.Compress(cmd.Context(), text, algorithm)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}

			fmt.Fprint(cmd.OutOrStdout(), res.Comp)
			fmt.Fprintf(cmd.ErrOrStderr(), "\n[rdctl] saved %d chars (%.2f%%) in %.3fms, hash %s\n",
				res.Metrics.SavedChars, res.Metrics.Pct*100, res.Metrics.LatencyMs, res.Hash)
			return nil
		},
	}
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "semantic, syntactic or aggressive (server default: semantic)")
	cmd.Flags().StringVar(&text, "text", "", "text to reduce instead of a file")
	return cmd
}

func newBatchCmd(c *cli) *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "batch [file...]",
		Short: "Reduce several texts in one request",
		Long: `Reduce several texts with one algorithm.

Each file is one text. Without files, every non-empty stdin line is one text.

Examples:
  rdctl batch a.txt b.txt --algorithm syntactic
  printf 'the cat\na dog\n' | rdctl batch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var texts []string
			if len(args) == 0 {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 64*1024), 1024*1024)
				for scanner.Scan() {
					if line := scanner.Text(); strings.TrimSpace(line) != "" {
						texts = append(texts, line)
					}
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read from stdin: %w", err)
				}
			}
			for _, name := range args {
				content, err := os.ReadFile(name)
				if err != nil {
					return fmt.Errorf("failed to read file %s: %w", name, err)
				}
				texts = append(texts, string(content))
			}

			res, err := c.client.Batch(cmd.Context(), texts, algorithm)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tSAVED\tPCT\tHASH\tTEXT")
			for i, r := range res.Results {
				fmt.Fprintf(w, "%d\t%d\t%.2f%%\t%s\t%s\n", i+1, r.Metrics.SavedChars, r.Metrics.Pct*100, r.Hash, preview(r.Comp, 40))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", res.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "semantic, syntactic or aggressive (server default: semantic)")
	return cmd
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Compare every algorithm on a text",
		Long: `Compare the savings of every algorithm without updating statistics.

Examples:
  rdctl analyze notes.txt
  rdctl analyze --text "Hello, World!!"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				var err error
				if text, err = readInput(cmd, args); err != nil {
					return err
				}
			}

			res, err := c.client.Analyze(cmd.Context(), text)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}

			names := make([]string, 0, len(res.Metrics))
			for name := range res.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ALGORITHM\tSAVED\tPCT\tRATIO")
			for _, name := range names {
				m := res.Metrics[name]
				fmt.Fprintf(w, "%s\t%d\t%.2f%%\t%.4f\n", name, m.SavedChars, m.Pct*100, m.Ratio)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recommended: %s (saves %s, last latency %s)\n",
				res.Recommendation.Algorithm, res.Recommendation.Savings, res.Recommendation.Latency)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "text to analyze instead of a file")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cumulative statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), st)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Processed:\t%d chars\n", st.Total)
			fmt.Fprintf(w, "Saved:\t%d chars (%s)\n", st.Saved, st.TotalPct)
			fmt.Fprintf(w, "Avg ratio:\t%s\n", st.AvgRatio)
			fmt.Fprintf(w, "Last latency:\t%s\n", st.Lat)
			fmt.Fprintf(w, "Avg latency/char:\t%s\n", st.AvgLat)
			return w.Flush()
		},
	}
}

func newResetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset cumulative statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := c.client.Reset(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{"ok": true, "msg": msg})
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newHealthCmd(c *cli) *cobra.Command {
	var system bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check reductiond server health",
		Long: `Check the health status of the reductiond HTTP server.

Examples:
  rdctl health
  rdctl health --system --server http://localhost:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if system {
				sys, err := c.client.SystemHealth(cmd.Context())
				if err != nil {
					return err
				}
				if c.jsonOutput {
					return printJSON(cmd.OutOrStdout(), sys)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Version:\t%s\n", sys.Version)
				fmt.Fprintf(w, "Mode:\t%s\n", sys.Mode)
				fmt.Fprintf(w, "Port:\t%d\n", sys.Port)
				fmt.Fprintf(w, "Vector dim:\t%d\n", sys.VecDim)
				fmt.Fprintf(w, "Cache segments:\t%d\n", sys.CacheSegments)
				fmt.Fprintf(w, "Max active:\t%d\n", sys.MaxActive)
				return w.Flush()
			}

			h, err := c.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), h)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server Status: %s\n", h.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "Server URL: %s\n", c.client.BaseURL())
			return nil
		},
	}
	cmd.Flags().BoolVar(&system, "system", false, "show deployment settings")
	return cmd
}

func newWatchCmd(c *cli) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live statistics dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			p := tea.NewProgram(monitor.NewModel(c.client, interval),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err := p.Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "refresh interval")
	return cmd
}

// preview shortens s to at most n runes on one line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
