package cli

import (
	"github.com/spf13/cobra"

	"discuss/internal/cli/client"
	"discuss/internal/cli/output"
)

func newUsersCommand(s *settings) *cobra.Command {
	usersCommand := &cobra.Command{
		Use:   "users",
		Short: "Manages forum users",
	}

	var format string
	createCommand := &cobra.Command{
		Use:   "create <username>",
		Short: "Creates a user on a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load()
			if err != nil {
				return err
			}
			var payload map[string]any
			c := client.New(cfg.ServerURL, cfg.APIKey)
			if err := c.Post(cmd.Context(), "/api/v1/users", map[string]string{"username": args[0]}, &payload); err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), payload, format, false)
		},
	}
	createCommand.Flags().StringVar(&format, "format", "", "Output format: table, json, plain, md or quiet")

	usersCommand.AddCommand(createCommand)
	return usersCommand
}
