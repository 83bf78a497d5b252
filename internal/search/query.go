package search

import (
	"strings"
	"unicode"

	"discuss/internal/models"
)

type SortKey string

const (
	SortDefault  SortKey = ""
	SortDate     SortKey = "date"
	SortActivity SortKey = "activity"
	SortVotes    SortKey = "votes"
	SortComments SortKey = "comments"
)

// Valid reports whether k is one of the recognized sort keys. The empty key
// is valid and means activity.
func (k SortKey) Valid() bool {
	switch k {
	case SortDefault, SortDate, SortActivity, SortVotes, SortComments:
		return true
	}
	return false
}

// Normalize maps the default key to activity.
func (k SortKey) Normalize() SortKey {
	if k == SortDefault {
		return SortActivity
	}
	return k
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Filters restrict the threads a query may return. All set filters must hold;
// the id sets match any of their members.
type Filters struct {
	CourseID       string
	CommentableIDs []string
	GroupIDs       []string
	// Context defaults to course; standalone threads only match when asked
	// for explicitly.
	Context    string
	Flagged    bool
	Unanswered bool
	// Unread only applies when UserID is set.
	Unread bool
	UserID string
}

func (f Filters) normalize() Filters {
	f.CourseID = strings.TrimSpace(f.CourseID)
	f.Context = strings.TrimSpace(f.Context)
	if f.Context == "" {
		f.Context = models.ContextCourse
	}
	f.UserID = strings.TrimSpace(f.UserID)
	f.CommentableIDs = compactIDs(f.CommentableIDs)
	f.GroupIDs = compactIDs(f.GroupIDs)
	if f.UserID == "" {
		f.Unread = false
	}
	return f
}

// Query is a user-facing search request.
type Query struct {
	Text    string
	Filters Filters
	SortKey SortKey
	Page    int
	PerPage int
}

// IndexQuery is what the engine asks of the index: threads where a single
// document (the thread or one of its comments) contains every term.
type IndexQuery struct {
	Terms   []string
	Filters Filters
	Sort    SortKey
	Limit   int
	Offset  int
}

// Tokenize splits free text into lower-cased terms on anything that is not a
// letter or digit.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, strings.ToLower(f))
	}
	return terms
}

// SplitIDs parses a comma-separated id list, dropping blanks.
func SplitIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return compactIDs(strings.Split(raw, ","))
}

func compactIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
