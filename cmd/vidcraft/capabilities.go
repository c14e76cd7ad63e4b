package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newCapabilitiesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Print the capability listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.agent.Capabilities())
		},
	}
}
