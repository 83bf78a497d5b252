package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"discuss/internal/search"
)

func searchHandler(engine *search.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		result, err := engine.Search(r.Context(), parseSearchQuery(r.URL.Query()))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		writeJSON(w, http.StatusOK, result)
	})
}

// parseSearchQuery never rejects a request: malformed numbers and booleans
// fall back to their defaults.
func parseSearchQuery(q url.Values) search.Query {
	commentables := append(search.SplitIDs(q.Get("commentable_id")), search.SplitIDs(q.Get("commentable_ids"))...)
	groups := append(search.SplitIDs(q.Get("group_id")), search.SplitIDs(q.Get("group_ids"))...)
	return search.Query{
		Text: q.Get("text"),
		Filters: search.Filters{
			CourseID:       q.Get("course_id"),
			CommentableIDs: commentables,
			GroupIDs:       groups,
			Context:        q.Get("context"),
			Flagged:        lenientBool(q.Get("flagged")),
			Unanswered:     lenientBool(q.Get("unanswered")),
			Unread:         lenientBool(q.Get("unread")),
			UserID:         q.Get("user_id"),
		},
		SortKey: search.SortKey(strings.TrimSpace(q.Get("sort_key"))),
		Page:    lenientInt(q.Get("page"), 1),
		PerPage: lenientInt(q.Get("per_page"), 0),
	}
}

func lenientBool(raw string) bool {
	v, err := parseBool(raw)
	if err != nil {
		return false
	}
	return v
}

func lenientInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseBool(raw string) (bool, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch raw {
	case "", "false", "0", "no":
		return false, nil
	case "true", "1", "yes":
		return true, nil
	default:
		return false, errors.New("invalid boolean")
	}
}
