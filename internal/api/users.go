package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"discuss/internal/db"
)

type createUserRequest struct {
	Username string `json:"username"`
}

type markReadRequest struct {
	ThreadID string `json:"thread_id"`
}

func usersCollectionHandler(database *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req createUserRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user, err := db.CreateUser(r.Context(), database, req.Username)
		if err != nil {
			writeStoreError(w, err, "create user")
			return
		}
		writeJSON(w, http.StatusCreated, user)
	})
}

func usersScopedHandler(database *sql.DB) http.Handler {
	read := markReadHandler(database)
	notifications := notificationsHandler(database)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, rest := splitTail(r.URL.Path, "/api/v1/users/")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "missing user id")
			return
		}
		switch rest {
		case "":
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			user, err := db.GetUser(r.Context(), database, userID)
			if err != nil {
				writeStoreError(w, err, "load user")
				return
			}
			writeJSON(w, http.StatusOK, user)
		case "read":
			read(w, r, userID)
		case "notifications":
			notifications(w, r, userID)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	})
}

func markReadHandler(database *sql.DB) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, userID string) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req markReadRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.ThreadID = strings.TrimSpace(req.ThreadID)
		if req.ThreadID == "" {
			writeError(w, http.StatusBadRequest, "thread_id is required")
			return
		}
		if _, err := db.GetUser(r.Context(), database, userID); err != nil {
			writeStoreError(w, err, "load user")
			return
		}
		if err := db.MarkRead(r.Context(), database, userID, req.ThreadID); err != nil {
			writeStoreError(w, err, "mark thread read")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func notificationsHandler(database *sql.DB) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, userID string) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		limit, offset := parseLimitOffset(r)
		items, err := db.ListNotifications(r.Context(), database, userID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list notifications")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": items,
			"limit":         limit,
			"offset":        offset,
		})
	}
}

func parseLimitOffset(r *http.Request) (int, int) {
	limit := 20
	offset := 0
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
