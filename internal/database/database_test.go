package database

import (
	"context"
	"testing"
	"time"

	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestToRecordID(t *testing.T) {
	rid, err := toRecordID("user:alice")
	require.NoError(t, err)
	assert.Equal(t, "user", rid.Table)
	assert.Equal(t, "alice", rid.ID)
	assert.Equal(t, "user:alice", recordString(&rid))

	_, err = toRecordID("alice")
	assert.Error(t, err)
}

func TestRecordString(t *testing.T) {
	assert.Equal(t, "", recordString(nil))
	id := models.NewRecordID("message", 42)
	assert.Equal(t, "message:42", recordString(&id))
}

func TestMessageRecord_ToDomain(t *testing.T) {
	id := models.NewRecordID("message", "abc")
	user := models.NewRecordID("user", "alice")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	msg := messageRecord{ID: &id, User: &user, UserName: "Alice", Text: "hi", CreatedAt: &models.CustomDateTime{Time: at}}.toDomain()

	assert.Equal(t, "message:abc", msg.ID)
	assert.Equal(t, domain.UserID("user:alice"), msg.UserID)
	assert.Equal(t, at, msg.CreatedAt)
}

func TestRedactDBURL(t *testing.T) {
	assert.Equal(t, "ws://root:xxxxx@localhost:8000/rpc", redactDBURL("ws://root:secret@localhost:8000/rpc"))
	assert.Equal(t, "invalid-url", redactDBURL("ws://[::1"))
}

func TestBackoffGrows(t *testing.T) {
	assert.GreaterOrEqual(t, backoff(0), 100*time.Millisecond)
	assert.Less(t, backoff(0), 200*time.Millisecond)
	assert.GreaterOrEqual(t, backoff(3), 800*time.Millisecond)
	assert.LessOrEqual(t, backoff(20), 5*time.Second+5*time.Second/4)
}

// setupTestDB connects to the SurrealDB integration test database.
func setupTestDB(t *testing.T) *surrealdb.DB {
	t.Helper()
	cfg := testutils.SurrealConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() {
		_, _ = surrealdb.Query[any](context.Background(), db, "DELETE message; DELETE user;", nil)
		db.Close(context.Background())
	})
	return db
}

func TestUserDirectory_Integration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	users := NewUserDirectory(db)

	id := testutils.NewUserID()
	other := testutils.NewUserID()
	require.NoError(t, users.Put(ctx, domain.User{ID: id, Name: "Alice"}, domain.User{ID: other, Name: "Bob"}))

	t.Run("finds existing user", func(t *testing.T) {
		user, err := users.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("seeds every user", func(t *testing.T) {
		user, err := users.FindByID(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, "Bob", user.Name)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := users.FindByID(ctx, "user:nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := users.FindByID(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestMessageStore_Integration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewMessageStore(db)

	first, err := store.Create(ctx, domain.NewMessage{UserID: "user:alice", UserName: "Alice", Text: "first"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, domain.UserID("user:alice"), first.UserID)

	time.Sleep(5 * time.Millisecond)
	second, err := store.Create(ctx, domain.NewMessage{UserID: domain.Assistant.UserID, UserName: domain.Assistant.UserName, Text: "second"})
	require.NoError(t, err)

	recent, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, first.ID, recent[0].ID)
	assert.Equal(t, second.ID, recent[1].ID)

	_, err = store.Create(ctx, domain.NewMessage{UserID: "user:alice", UserName: "Alice"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
