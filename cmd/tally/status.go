package main

import (
	"encoding/json"
	"fmt"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/spf13/cobra"
)

// statusPayload is the fixed liveness payload.
type statusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func statusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report liveness",
		Long:  `Print a fixed liveness payload. Exits zero whenever the binary runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload := statusPayload{Status: "ok", Message: "tally is running"}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(payload.Message))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")

	return cmd
}
