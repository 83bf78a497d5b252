package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"discuss/internal/auth"
)

func newKeygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generates a shared API key and the hash to configure on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateAPIKey()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "api_key: %s\n", key)
			fmt.Fprintf(out, "api_key_hash: %s\n", auth.HashAPIKey(key))
			return nil
		},
	}
}
