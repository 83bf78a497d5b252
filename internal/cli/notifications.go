package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"discuss/internal/cli/client"
	"discuss/internal/cli/output"
)

func newNotificationsCommand(s *settings) *cobra.Command {
	var (
		limit  int
		offset int
		format string
		quiet  bool
	)
	notificationsCommand := &cobra.Command{
		Use:   "notifications <user-id>",
		Short: "Lists the mention notifications a user received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load()
			if err != nil {
				return err
			}
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))
			var payload map[string]any
			c := client.New(cfg.ServerURL, cfg.APIKey)
			if err := c.Get(cmd.Context(), "/api/v1/users/"+url.PathEscape(args[0])+"/notifications", q, &payload); err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), payload, format, quiet)
		},
	}

	flags := notificationsCommand.Flags()
	flags.IntVar(&limit, "limit", 20, "Maximum notifications to list")
	flags.IntVar(&offset, "offset", 0, "Notifications to skip")
	flags.StringVar(&format, "format", "", "Output format: table, json, plain, md or quiet")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Print notification ids only")
	return notificationsCommand
}
