package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discuss/internal/models"
)

type memoryStore struct {
	users    map[string]*models.User
	contents map[string]*models.Content
	created  []*models.Notification
	failWith error
}

func newMemoryStore() *memoryStore {
	s := &memoryStore{users: map[string]*models.User{}, contents: map[string]*models.Content{}}
	for _, name := range []string{"alice", "bob", "carol"} {
		s.users["id-"+name] = &models.User{ID: "id-" + name, Username: name}
	}
	title := "Course logistics"
	s.contents["t1"] = &models.Content{ID: "t1", Kind: models.KindThread, ThreadID: "t1", Title: &title, AuthorID: "id-alice"}
	s.contents["c1"] = &models.Content{ID: "c1", Kind: models.KindComment, ThreadID: "t1", AuthorID: "id-bob"}
	return s
}

func (s *memoryStore) UserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, sql.ErrNoRows)
	}
	return u, nil
}

func (s *memoryStore) Content(_ context.Context, id string) (*models.Content, error) {
	c, ok := s.contents[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (s *memoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	if s.failWith != nil {
		return s.failWith
	}
	n.ID = fmt.Sprintf("n%d", len(s.created)+1)
	s.created = append(s.created, n)
	return nil
}

func newTestDispatcher(t *testing.T, s *memoryStore) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(s, s, s)
	require.NoError(t, err)
	return d
}

func TestNewDispatcher(t *testing.T) {
	s := newMemoryStore()
	_, err := NewDispatcher(nil, s, s)
	assert.Equal(t, ErrUserDirectoryRequired, err)
	_, err = NewDispatcher(s, nil, s)
	assert.Equal(t, ErrContentStoreRequired, err)
	_, err = NewDispatcher(s, s, nil)
	assert.Equal(t, ErrNotificationStoreRequired, err)
}

func TestDispatchThread(t *testing.T) {
	s := newMemoryStore()
	d := newTestDispatcher(t, s)

	n, err := d.Dispatch(context.Background(), s.contents["t1"], []string{"id-bob", "id-alice", "id-carol", "id-bob"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, models.NotificationTypeAtUser, n.Type)
	assert.Equal(t, []string{"id-bob", "id-carol"}, n.Receivers)
	assert.Equal(t, "t1", n.TargetID)
	assert.Equal(t, models.KindThread, n.TargetKind)
	assert.Equal(t, models.NotificationInfo{
		ContentID:     "t1",
		ContentType:   models.KindThread,
		ThreadTitle:   "Course logistics",
		ActorUsername: n.Info.ActorUsername,
	}, n.Info)
	require.NotNil(t, n.Info.ActorUsername)
	assert.Equal(t, "alice", *n.Info.ActorUsername)
	require.NotNil(t, n.ActorID)
	assert.Equal(t, "id-alice", *n.ActorID)
	assert.Len(t, s.created, 1)
}

func TestDispatchCommentUsesThreadTitle(t *testing.T) {
	s := newMemoryStore()
	d := newTestDispatcher(t, s)

	n, err := d.Dispatch(context.Background(), s.contents["c1"], []string{"id-carol"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "Course logistics", n.Info.ThreadTitle)
	assert.Equal(t, models.KindComment, n.Info.ContentType)
	assert.Equal(t, "bob", *n.Info.ActorUsername)
}

func TestDispatchAnonymousOmitsActor(t *testing.T) {
	s := newMemoryStore()
	s.contents["c1"].Anonymous = true
	d := newTestDispatcher(t, s)

	n, err := d.Dispatch(context.Background(), s.contents["c1"], []string{"id-carol"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Nil(t, n.ActorID)
	assert.Nil(t, n.Info.ActorUsername)
}

func TestDispatchWithoutReceiversIsNoop(t *testing.T) {
	s := newMemoryStore()
	d := newTestDispatcher(t, s)
	ctx := context.Background()

	n, err := d.Dispatch(ctx, s.contents["t1"], []string{"id-alice"})
	require.NoError(t, err)
	assert.Nil(t, n, "self mention only")

	n, err = d.Dispatch(ctx, s.contents["t1"], []string{"id-gone"})
	require.NoError(t, err)
	assert.Nil(t, n, "missing users are omitted")

	n, err = d.Dispatch(ctx, s.contents["t1"], []string{"id-gone", "id-carol"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, []string{"id-carol"}, n.Receivers)
	assert.Len(t, s.created, 1)
}

func TestDispatchPersistenceFailure(t *testing.T) {
	s := newMemoryStore()
	s.failWith = errors.New("disk full")
	d := newTestDispatcher(t, s)

	_, err := d.Dispatch(context.Background(), s.contents["t1"], []string{"id-bob"})
	assert.ErrorIs(t, err, s.failWith)
}
