package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discuss/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := OpenMigrated(filepath.Join(t.TempDir(), "discuss.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func mustUser(t *testing.T, database *sql.DB, username string) *models.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, username)
	require.NoError(t, err)
	return u
}

func mustThread(t *testing.T, database *sql.DB, p CreateThreadParams) *models.Content {
	t.Helper()
	if p.Title == "" {
		p.Title = "title"
	}
	th, err := CreateThread(context.Background(), database, p)
	require.NoError(t, err)
	return th
}

func mustComment(t *testing.T, database *sql.DB, threadID string, p CreateCommentParams) *models.Content {
	t.Helper()
	c, err := CreateComment(context.Background(), database, threadID, p)
	require.NoError(t, err)
	return c
}

func strPtr(v string) *string { return &v }

func TestCreateUserRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	alice := mustUser(t, database, " alice ")
	assert.Equal(t, "alice", alice.Username)

	_, err := CreateUser(ctx, database, "alice")
	assert.EqualError(t, err, "username already exists")
	_, err = CreateUser(ctx, database, "  ")
	assert.Error(t, err)

	got, err := GetUserByUsername(ctx, database, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = GetUser(ctx, database, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsInputError(err))
}

func TestCreateThreadDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	author := mustUser(t, database, "alice")

	th := mustThread(t, database, CreateThreadParams{
		AuthorID: author.ID, Title: "Hello", Body: "body", CourseID: "course", CommentableID: "general",
		GroupID: strPtr(" "),
	})
	assert.Equal(t, models.KindThread, th.Kind)
	assert.Equal(t, th.ID, th.ThreadID)
	assert.Equal(t, models.ThreadTypeDiscussion, th.ThreadType)
	assert.Equal(t, models.ContextCourse, th.Context)
	assert.Nil(t, th.GroupID)
	assert.Equal(t, int64(1), th.BodyRevision)
	assert.Empty(t, th.Mentions)

	_, err := CreateThread(ctx, database, CreateThreadParams{AuthorID: author.ID, Title: "t", Body: " "})
	assert.True(t, IsInputError(err))
	_, err = CreateThread(ctx, database, CreateThreadParams{AuthorID: author.ID, Title: "t", Body: "b", ThreadType: "poll"})
	assert.Error(t, err)
	_, err = CreateThread(ctx, database, CreateThreadParams{AuthorID: author.ID, Title: "t", Body: "b", Context: "team"})
	assert.Error(t, err)
}

func TestCreateCommentInheritsThreadAttributes(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	author := mustUser(t, database, "alice")

	th := mustThread(t, database, CreateThreadParams{
		AuthorID: author.ID, Body: "body", CourseID: "course", CommentableID: "general",
		GroupID: strPtr("3"), ThreadType: models.ThreadTypeQuestion, Context: models.ContextStandalone,
	})
	c := mustComment(t, database, th.ID, CreateCommentParams{AuthorID: author.ID, Body: "answer"})
	reply := mustComment(t, database, th.ID, CreateCommentParams{AuthorID: author.ID, Body: "reply", ParentID: &c.ID})

	assert.Equal(t, models.KindComment, c.Kind)
	assert.Equal(t, th.ID, c.ThreadID)
	assert.Equal(t, "course", c.CourseID)
	assert.Equal(t, "general", c.CommentableID)
	require.NotNil(t, c.GroupID)
	assert.Equal(t, "3", *c.GroupID)
	assert.Nil(t, c.Title)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, c.ID, *reply.ParentID)

	updated, err := GetContent(ctx, database, th.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CommentCount)
	assert.True(t, updated.LastActivityAt.After(th.LastActivityAt))

	_, err = CreateComment(ctx, database, c.ID, CreateCommentParams{AuthorID: author.ID, Body: "x"})
	assert.Error(t, err, "comments attach to threads")

	other := mustThread(t, database, CreateThreadParams{AuthorID: author.ID, Body: "other"})
	_, err = CreateComment(ctx, database, other.ID, CreateCommentParams{AuthorID: author.ID, Body: "x", ParentID: &c.ID})
	assert.Error(t, err, "parent must be in the same thread")
}

func TestUpdateContentBumpsBodyRevision(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	author := mustUser(t, database, "alice")
	th := mustThread(t, database, CreateThreadParams{AuthorID: author.ID, Title: "old title", Body: "old"})
	c := mustComment(t, database, th.ID, CreateCommentParams{AuthorID: author.ID, Body: "comment"})

	updated, err := UpdateThread(ctx, database, th.ID, nil, "new body")
	require.NoError(t, err)
	assert.Equal(t, "new body", updated.Body)
	assert.Equal(t, "old title", updated.TitleText())
	assert.Equal(t, int64(2), updated.BodyRevision)

	updated, err = UpdateThread(ctx, database, th.ID, strPtr("new title"), "newer body")
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.TitleText())
	assert.Equal(t, int64(3), updated.BodyRevision)

	uc, err := UpdateComment(ctx, database, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", uc.Body)
	assert.Equal(t, int64(2), uc.BodyRevision)

	_, err = UpdateThread(ctx, database, c.ID, nil, "not a thread")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = UpdateComment(ctx, database, th.ID, "not a comment")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCommentRemovesRepliesAndRecounts(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	author := mustUser(t, database, "alice")
	th := mustThread(t, database, CreateThreadParams{AuthorID: author.ID, Body: "body"})
	c1 := mustComment(t, database, th.ID, CreateCommentParams{AuthorID: author.ID, Body: "one"})
	mustComment(t, database, th.ID, CreateCommentParams{AuthorID: author.ID, Body: "reply", ParentID: &c1.ID})
	c2 := mustComment(t, database, th.ID, CreateCommentParams{AuthorID: author.ID, Body: "two"})

	require.NoError(t, DeleteComment(ctx, database, c1.ID))

	comments, err := ListThreadComments(ctx, database, th.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, c2.ID, comments[0].ID)

	got, err := GetContent(ctx, database, th.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	assert.Error(t, DeleteComment(ctx, database, th.ID))
	require.NoError(t, DeleteThread(ctx, database, th.ID))
	_, err = GetContent(ctx, database, c2.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModerationAndReadState(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	author := mustUser(t, database, "alice")
	reader := mustUser(t, database, "bob")
	th := mustThread(t, database, CreateThreadParams{AuthorID: author.ID, Body: "body"})
	c := mustComment(t, database, th.ID, CreateCommentParams{AuthorID: author.ID, Body: "answer"})

	endorsed, err := SetEndorsed(ctx, database, c.ID, true)
	require.NoError(t, err)
	assert.True(t, endorsed.Endorsed)
	_, err = SetEndorsed(ctx, database, th.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)

	voted, err := SetVotes(ctx, database, th.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, voted.Votes)

	require.NoError(t, FlagContent(ctx, database, c.ID, reader.ID))
	require.NoError(t, FlagContent(ctx, database, c.ID, reader.ID))
	flagged, err := GetContent(ctx, database, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{reader.ID}, flagged.AbuseFlaggers)
	require.NoError(t, UnflagContent(ctx, database, c.ID, reader.ID))
	flagged, err = GetContent(ctx, database, c.ID)
	require.NoError(t, err)
	assert.Empty(t, flagged.AbuseFlaggers)
	assert.ErrorIs(t, FlagContent(ctx, database, "missing", reader.ID), ErrNotFound)

	require.NoError(t, MarkRead(ctx, database, reader.ID, th.ID))
	require.NoError(t, MarkRead(ctx, database, reader.ID, th.ID))
	assert.Error(t, MarkRead(ctx, database, reader.ID, c.ID))

	stats, err := GetForumStats(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.Threads)
	assert.Equal(t, 1, stats.Comments)
	assert.Equal(t, 2, stats.PendingMentions)
}
