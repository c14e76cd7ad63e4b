package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vidcraft-ai/vidcraft/pkg/protocol"
)

func newRunCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "run <prompt...>",
		Short: "Process one request and print the aggregate result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, runErr := a.agent.Process(cmd.Context(), strings.Join(args, " "))
			if err := printResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return runErr
		},
	}
}

func printResult(w io.Writer, res *protocol.AggregateResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
