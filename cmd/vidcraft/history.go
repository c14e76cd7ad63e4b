package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidcraft-ai/vidcraft/internal/planlib"
)

func newHistoryCmd(g *globals) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !g.cfg.Journal.Enabled {
				return fmt.Errorf("journal is disabled in %s", g.configPath)
			}
			a, err := buildApp(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			execs, err := a.agent.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(execs)
			}
			return printHistory(cmd.OutOrStdout(), execs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of executions to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print executions as JSON")
	return cmd
}

func printHistory(w io.Writer, execs []*planlib.Execution) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tSTEPS\tDURATION\tPROMPT")
	for _, e := range execs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%dms\t%s\n",
			e.ID,
			time.Unix(e.StartedAt, 0).Format(time.DateTime),
			e.Status,
			e.StepsCompleted, e.StepCount,
			e.DurationMs,
			truncate(e.Prompt, 48),
		)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
