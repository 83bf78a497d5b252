package models

import "time"

type ContentKind string

const (
	KindThread  ContentKind = "thread"
	KindComment ContentKind = "comment"
)

const (
	ThreadTypeDiscussion = "discussion"
	ThreadTypeQuestion   = "question"

	ContextCourse     = "course"
	ContextStandalone = "standalone"
)

// Content is a thread or a comment. Comments carry the course, commentable,
// group and context of their thread.
type Content struct {
	ID             string          `json:"id"`
	Kind           ContentKind     `json:"type"`
	ThreadID       string          `json:"thread_id"`
	ParentID       *string         `json:"parent_id,omitempty"`
	AuthorID       string          `json:"author_id"`
	Anonymous      bool            `json:"anonymous"`
	Title          *string         `json:"title,omitempty"`
	Body           string          `json:"body"`
	CourseID       string          `json:"course_id"`
	CommentableID  string          `json:"commentable_id"`
	GroupID        *string         `json:"group_id,omitempty"`
	ThreadType     string          `json:"thread_type,omitempty"`
	Context        string          `json:"context"`
	CreatedAt      time.Time       `json:"created_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	CommentCount   int             `json:"comment_count"`
	Endorsed       bool            `json:"endorsed"`
	Votes          int             `json:"votes"`
	AbuseFlaggers  []string        `json:"abuse_flaggers"`
	Mentions       []MentionRecord `json:"at_position_list"`
	BodyRevision   int64           `json:"body_revision"`
}

func (c *Content) IsThread() bool {
	return c.Kind == KindThread
}

func (c *Content) TitleText() string {
	if c.Title == nil {
		return ""
	}
	return *c.Title
}

// MentionRecord is a resolved @username found in the rendered text of a
// piece of content. Position is the ordinal of the token in the source text.
type MentionRecord struct {
	Position int    `json:"position"`
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

// MentionState is the stored mention list of a content row together with the
// counters used to detect concurrent rescans.
type MentionState struct {
	Records      []MentionRecord
	Revision     int64
	BodyRevision int64
}
