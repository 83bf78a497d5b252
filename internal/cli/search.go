package cli

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"discuss/internal/cli/client"
	"discuss/internal/cli/output"
)

type searchFlags struct {
	courseID       string
	commentableIDs []string
	groupIDs       []string
	context        string
	flagged        bool
	unanswered     bool
	unread         bool
	userID         string
	sortKey        string
	page           int
	perPage        int
	format         string
	quiet          bool
}

func newSearchCommand(s *settings) *cobra.Command {
	var f searchFlags
	searchCommand := &cobra.Command{
		Use:   "search <text...>",
		Short: "Searches threads on a running server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load()
			if err != nil {
				return err
			}
			var payload map[string]any
			c := client.New(cfg.ServerURL, cfg.APIKey)
			if err := c.Get(cmd.Context(), "/api/v1/search/threads", f.values(strings.Join(args, " ")), &payload); err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), payload, f.format, f.quiet)
		},
	}

	flags := searchCommand.Flags()
	flags.StringVar(&f.courseID, "course-id", "", "Course to search in")
	flags.StringSliceVar(&f.commentableIDs, "commentable-id", nil, "Commentable ids, repeatable or comma separated")
	flags.StringSliceVar(&f.groupIDs, "group-id", nil, "Group ids, repeatable or comma separated")
	flags.StringVar(&f.context, "context", "", "Thread context: course or standalone")
	flags.BoolVar(&f.flagged, "flagged", false, "Only threads with flagged content")
	flags.BoolVar(&f.unanswered, "unanswered", false, "Only questions without an endorsed answer")
	flags.BoolVar(&f.unread, "unread", false, "Only threads the user has not read (needs --user-id)")
	flags.StringVar(&f.userID, "user-id", "", "User the search runs for")
	flags.StringVar(&f.sortKey, "sort", "", "Sort key: activity, date, votes or comments")
	flags.IntVar(&f.page, "page", 1, "Result page")
	flags.IntVar(&f.perPage, "per-page", 0, "Results per page (0 keeps the server default)")
	flags.StringVar(&f.format, "format", "", "Output format: table, json, plain, md or quiet")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "Print thread ids only")
	return searchCommand
}

func (f searchFlags) values(text string) url.Values {
	q := url.Values{}
	q.Set("text", text)
	setIfNotEmpty(q, "course_id", f.courseID)
	setIfNotEmpty(q, "commentable_ids", strings.Join(f.commentableIDs, ","))
	setIfNotEmpty(q, "group_ids", strings.Join(f.groupIDs, ","))
	setIfNotEmpty(q, "context", f.context)
	setIfNotEmpty(q, "user_id", f.userID)
	setIfNotEmpty(q, "sort_key", f.sortKey)
	if f.flagged {
		q.Set("flagged", "true")
	}
	if f.unanswered {
		q.Set("unanswered", "true")
	}
	if f.unread {
		q.Set("unread", "true")
	}
	if f.page > 1 {
		q.Set("page", strconv.Itoa(f.page))
	}
	if f.perPage > 0 {
		q.Set("per_page", strconv.Itoa(f.perPage))
	}
	return q
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		q.Set(key, value)
	}
}
