package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"discuss/internal/db"
)

type createThreadRequest struct {
	Title         string  `json:"title"`
	Body          string  `json:"body"`
	AuthorID      string  `json:"author_id"`
	Anonymous     bool    `json:"anonymous"`
	CourseID      string  `json:"course_id"`
	CommentableID string  `json:"commentable_id"`
	GroupID       *string `json:"group_id"`
	ThreadType    string  `json:"thread_type"`
	Context       string  `json:"context"`
}

type updateThreadRequest struct {
	Title *string `json:"title"`
	Body  string  `json:"body"`
}

type setVotesRequest struct {
	Votes int `json:"votes"`
}

func threadsCollectionHandler(database *sql.DB, pub publisher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req createThreadRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !requireAuthor(w, r, database, req.AuthorID) {
			return
		}
		thread, err := db.CreateThread(r.Context(), database, db.CreateThreadParams{
			AuthorID:      req.AuthorID,
			Anonymous:     req.Anonymous,
			Title:         req.Title,
			Body:          req.Body,
			CourseID:      strings.TrimSpace(req.CourseID),
			CommentableID: strings.TrimSpace(req.CommentableID),
			GroupID:       req.GroupID,
			ThreadType:    strings.TrimSpace(req.ThreadType),
			Context:       strings.TrimSpace(req.Context),
		})
		if err != nil {
			writeStoreError(w, err, "create thread")
			return
		}
		pub.contentChanged(thread)
		writeJSON(w, http.StatusCreated, thread)
	})
}

func threadsScopedHandler(database *sql.DB, pub publisher) http.Handler {
	comments := createCommentHandler(database, pub)
	votes := threadVotesHandler(database)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, rest := splitTail(r.URL.Path, "/api/v1/threads/")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing thread id")
			return
		}
		switch rest {
		case "":
			threadItem(w, r, database, pub, id)
		case "comments":
			comments(w, r, id)
		case "votes":
			votes(w, r, id)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	})
}

func threadItem(w http.ResponseWriter, r *http.Request, database *sql.DB, pub publisher, id string) {
	switch r.Method {
	case http.MethodGet:
		thread, err := db.GetContent(r.Context(), database, id)
		if err != nil {
			writeStoreError(w, err, "load thread")
			return
		}
		if !thread.IsThread() {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		comments, err := db.ListThreadComments(r.Context(), database, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list comments")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"thread":   thread,
			"comments": comments,
		})
	case http.MethodPut:
		var req updateThreadRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		thread, err := db.UpdateThread(r.Context(), database, id, req.Title, req.Body)
		if err != nil {
			writeStoreError(w, err, "update thread")
			return
		}
		pub.contentChanged(thread)
		writeJSON(w, http.StatusOK, thread)
	case http.MethodDelete:
		if err := db.DeleteThread(r.Context(), database, id); err != nil {
			writeStoreError(w, err, "delete thread")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func threadVotesHandler(database *sql.DB) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, threadID string) {
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req setVotesRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		thread, err := db.SetVotes(r.Context(), database, threadID, req.Votes)
		if err != nil {
			writeStoreError(w, err, "set votes")
			return
		}
		writeJSON(w, http.StatusOK, thread)
	}
}

// requireAuthor writes a 400 and reports false when authorID names no user.
func requireAuthor(w http.ResponseWriter, r *http.Request, database *sql.DB, authorID string) bool {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		writeError(w, http.StatusBadRequest, "author_id is required")
		return false
	}
	if _, err := db.GetUser(r.Context(), database, authorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "unknown author_id")
			return false
		}
		writeError(w, http.StatusInternalServerError, "failed to validate author")
		return false
	}
	return true
}
