package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/repository/postgres"
	"github.com/dom/account-market/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(userID uuid.UUID, expiresAt time.Time) *domain.Session {
	return &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  "sessionuser",
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func TestSessionRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		testDB.Truncate(t)
		session := newSession(uuid.New(), time.Now().Add(time.Hour))
		require.NoError(t, repo.Create(ctx, session))

		found, err := repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.UserID, found.UserID)
		assert.Equal(t, "sessionuser", found.Username)
		assert.WithinDuration(t, session.ExpiresAt, found.ExpiresAt, time.Millisecond)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "no-such-session")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		testDB.Truncate(t)
		session := newSession(uuid.New(), time.Now().Add(time.Hour))
		require.NoError(t, repo.Create(ctx, session))

		require.NoError(t, repo.Delete(ctx, session.ID))
		require.NoError(t, repo.Delete(ctx, session.ID))

		_, err := repo.GetByID(ctx, session.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete expired", func(t *testing.T) {
		testDB.Truncate(t)
		live := newSession(uuid.New(), time.Now().Add(time.Hour))
		require.NoError(t, repo.Create(ctx, live))
		for i := 0; i < 2; i++ {
			require.NoError(t, repo.Create(ctx, newSession(uuid.New(), time.Now().Add(-time.Minute))))
		}

		n, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = repo.GetByID(ctx, live.ID)
		assert.NoError(t, err)
	})
}
