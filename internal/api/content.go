package api

import (
	"database/sql"
	"net/http"
	"strings"

	"discuss/internal/db"
)

type flagRequest struct {
	UserID string `json:"user_id"`
}

// contentFlagHandler serves PUT and DELETE on /api/v1/content/{id}/flag for
// threads and comments alike.
func contentFlagHandler(database *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, rest := splitTail(r.URL.Path, "/api/v1/content/")
		if id == "" || rest != "flag" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		var userID string
		switch r.Method {
		case http.MethodPut:
			var req flagRequest
			if err := decodeBody(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			userID = strings.TrimSpace(req.UserID)
			if err := db.FlagContent(r.Context(), database, id, userID); err != nil {
				writeStoreError(w, err, "flag content")
				return
			}
		case http.MethodDelete:
			userID = strings.TrimSpace(r.URL.Query().Get("user_id"))
			if userID == "" {
				writeError(w, http.StatusBadRequest, "user_id is required")
				return
			}
			if err := db.UnflagContent(r.Context(), database, id, userID); err != nil {
				writeStoreError(w, err, "unflag content")
				return
			}
		default:
			methodNotAllowed(w)
			return
		}
		content, err := db.GetContent(r.Context(), database, id)
		if err != nil {
			writeStoreError(w, err, "load content")
			return
		}
		writeJSON(w, http.StatusOK, content)
	})
}
