package api

import (
	"database/sql"
	"net/http"

	"discuss/internal/db"
)

type createCommentRequest struct {
	Body      string  `json:"body"`
	AuthorID  string  `json:"author_id"`
	Anonymous bool    `json:"anonymous"`
	ParentID  *string `json:"parent_id"`
}

type updateCommentRequest struct {
	Body string `json:"body"`
}

type endorseRequest struct {
	Endorsed bool `json:"endorsed"`
}

func createCommentHandler(database *sql.DB, pub publisher) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, threadID string) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req createCommentRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !requireAuthor(w, r, database, req.AuthorID) {
			return
		}
		comment, err := db.CreateComment(r.Context(), database, threadID, db.CreateCommentParams{
			AuthorID:  req.AuthorID,
			Anonymous: req.Anonymous,
			Body:      req.Body,
			ParentID:  req.ParentID,
		})
		if err != nil {
			writeStoreError(w, err, "create comment")
			return
		}
		pub.contentChanged(comment)
		writeJSON(w, http.StatusCreated, comment)
	}
}

func commentsScopedHandler(database *sql.DB, pub publisher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, rest := splitTail(r.URL.Path, "/api/v1/comments/")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing comment id")
			return
		}
		switch rest {
		case "":
			commentItem(w, r, database, pub, id)
		case "endorse":
			if r.Method != http.MethodPut {
				methodNotAllowed(w)
				return
			}
			var req endorseRequest
			if err := decodeBody(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			comment, err := db.SetEndorsed(r.Context(), database, id, req.Endorsed)
			if err != nil {
				writeStoreError(w, err, "endorse comment")
				return
			}
			writeJSON(w, http.StatusOK, comment)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	})
}

func commentItem(w http.ResponseWriter, r *http.Request, database *sql.DB, pub publisher, id string) {
	switch r.Method {
	case http.MethodGet:
		comment, err := db.GetContent(r.Context(), database, id)
		if err != nil {
			writeStoreError(w, err, "load comment")
			return
		}
		if comment.IsThread() {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, comment)
	case http.MethodPut:
		var req updateCommentRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		comment, err := db.UpdateComment(r.Context(), database, id, req.Body)
		if err != nil {
			writeStoreError(w, err, "update comment")
			return
		}
		pub.contentChanged(comment)
		writeJSON(w, http.StatusOK, comment)
	case http.MethodDelete:
		if err := db.DeleteComment(r.Context(), database, id); err != nil {
			writeStoreError(w, err, "delete comment")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
