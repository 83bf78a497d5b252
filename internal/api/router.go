package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"discuss/internal/db"
	"discuss/internal/mentions"
	"discuss/internal/models"
	"discuss/internal/ratelimit"
	"discuss/internal/search"
)

// Publisher receives content events after a write commits.
type Publisher interface {
	Publish(ev mentions.ContentEvent)
}

// Options wires the router. A nil Mentions publishes nothing and an empty
// APIKeyHash leaves the API open. SearchPerMinute of zero or less turns the
// search rate limit off.
type Options struct {
	Database        *sql.DB
	Search          *search.Engine
	Mentions        Publisher
	Version         string
	APIKeyHash      string
	SearchPerMinute int
	Logger          *slog.Logger
}

func NewRouter(opts Options) *http.ServeMux {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	database := opts.Database
	pub := publisher{next: opts.Mentions, logger: opts.Logger}
	limiter := ratelimit.NewLimiter()
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(opts.APIKeyHash, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", statusHandler(database, opts.Version))
	mux.Handle("/api/v1/search/threads", withAuth(searchRateLimitMiddleware(limiter, opts.SearchPerMinute, searchHandler(opts.Search))))
	mux.Handle("/api/v1/users", withAuth(usersCollectionHandler(database)))
	mux.Handle("/api/v1/users/", withAuth(usersScopedHandler(database)))
	mux.Handle("/api/v1/threads", withAuth(threadsCollectionHandler(database, pub)))
	mux.Handle("/api/v1/threads/", withAuth(threadsScopedHandler(database, pub)))
	mux.Handle("/api/v1/comments/", withAuth(commentsScopedHandler(database, pub)))
	mux.Handle("/api/v1/content/", withAuth(contentFlagHandler(database)))
	mux.Handle("/mcp", mcpHandler(opts.Search, opts.Version, opts.APIKeyHash))
	return mux
}

func statusHandler(database *sql.DB, version string) http.HandlerFunc {
	type statusResponse struct {
		Status    string        `json:"status"`
		Version   string        `json:"version"`
		Timestamp string        `json:"timestamp"`
		Stats     db.ForumStats `json:"stats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		if err := database.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		stats, err := db.GetForumStats(r.Context(), database)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}

		writeJSON(w, http.StatusOK, statusResponse{
			Status:    "ok",
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Stats:     stats,
		})
	}
}

// publisher forwards events to the mention worker when one is configured.
type publisher struct {
	next   Publisher
	logger *slog.Logger
}

func (p publisher) contentChanged(c *models.Content) {
	if p.next == nil {
		return
	}
	p.logger.Debug("publishing content event", "content_id", c.ID, "kind", string(c.Kind), "revision", c.BodyRevision)
	p.next.Publish(mentions.ContentEvent{
		ContentID:    c.ID,
		Kind:         c.Kind,
		BodyRevision: c.BodyRevision,
	})
}

func pathTail(path, prefix string) string {
	tail := strings.TrimPrefix(path, prefix)
	tail = strings.Trim(tail, "/")
	return tail
}

// splitTail returns the id and the remaining sub-resource of a scoped path,
// e.g. "/api/v1/threads/abc/comments" gives ("abc", "comments").
func splitTail(path, prefix string) (string, string) {
	tail := pathTail(path, prefix)
	id, rest, _ := strings.Cut(tail, "/")
	return id, rest
}

func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return errors.New("invalid json payload")
	}
	return nil
}

// writeStoreError maps storage errors to a status: missing rows are 404 and
// rejected arguments 400.
func writeStoreError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	case db.IsInputError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
