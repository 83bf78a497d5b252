package db

import (
	"context"
	"database/sql"

	"discuss/internal/models"
)

// Store exposes the package functions as the directory and store interfaces
// used by the mention worker and the notification dispatcher. Missing rows
// are reported as ErrNotFound.
type Store struct {
	database *sql.DB
}

func NewStore(database *sql.DB) *Store {
	return &Store{database: database}
}

func (s *Store) DB() *sql.DB { return s.database }

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return GetUserByUsername(ctx, s.database, username)
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	return GetUser(ctx, s.database, id)
}

func (s *Store) Content(ctx context.Context, id string) (*models.Content, error) {
	return GetContent(ctx, s.database, id)
}

func (s *Store) MentionState(ctx context.Context, contentID string) (*models.MentionState, error) {
	return GetMentionState(ctx, s.database, contentID)
}

func (s *Store) ReplaceMentions(
	ctx context.Context,
	contentID string,
	records []models.MentionRecord,
	expectRevision, bodyRevision int64,
) error {
	return ReplaceMentions(ctx, s.database, contentID, records, expectRevision, bodyRevision)
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return CreateNotification(ctx, s.database, n)
}
