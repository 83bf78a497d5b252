package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"discuss/internal/models"
)

func CreateUser(ctx context.Context, database *sql.DB, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalidInput("username is required")
	}
	u := &models.User{
		ID:       uuid.NewString(),
		Username: username,
	}
	created := nowNanos()
	if _, err := database.ExecContext(ctx, `
INSERT INTO users (id, username, created)
VALUES (?, ?, ?)`, u.ID, u.Username, created); err != nil {
		if isUniqueConstraint(err) {
			return nil, invalidInput("username already exists")
		}
		return nil, err
	}
	u.Created = fromNanos(created)
	return u, nil
}

func GetUser(ctx context.Context, database *sql.DB, id string) (*models.User, error) {
	return scanUser(database.QueryRowContext(ctx, `
SELECT id, username, created
FROM users
WHERE id = ?`, id))
}

func GetUserByUsername(ctx context.Context, database *sql.DB, username string) (*models.User, error) {
	return scanUser(database.QueryRowContext(ctx, `
SELECT id, username, created
FROM users
WHERE username = ?`, username))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u       models.User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Username, &created); err != nil {
		return nil, err
	}
	u.Created = fromNanos(created)
	return &u, nil
}

func isUniqueConstraint(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
