package models

import "time"

// ThreadSummary is one entry of a search result page.
type ThreadSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	AuthorID       *string   `json:"user_id,omitempty"`
	AuthorUsername *string   `json:"username,omitempty"`
	Anonymous      bool      `json:"anonymous"`
	CourseID       string    `json:"course_id"`
	CommentableID  string    `json:"commentable_id"`
	GroupID        *string   `json:"group_id,omitempty"`
	ThreadType     string    `json:"thread_type"`
	Context        string    `json:"context"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CommentCount   int       `json:"comments_count"`
	Votes          int       `json:"votes"`
}

type SearchResult struct {
	Collection    []ThreadSummary `json:"collection"`
	TotalResults  int             `json:"total_results"`
	NumPages      int             `json:"num_pages"`
	CorrectedText *string         `json:"corrected_text,omitempty"`
}
