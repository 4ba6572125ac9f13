package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/userdir-server/internal/model"
)

func fixedClock(start time.Time) func() time.Time {
	var n int64
	return func() time.Time {
		return start.Add(time.Duration(atomic.AddInt64(&n, 1)) * time.Second)
	}
}

func TestUserRepository_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	created, err := repo.Insert(ctx, "Alice", "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, created.CreatedAt.Location())

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestUserRepository_InsertDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.Insert(ctx, "Alice", "a@x.com")
	require.NoError(t, err)

	_, err = repo.Insert(ctx, "Bob", "a@x.com")
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepository_EmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.Insert(ctx, "Alice", "a@x.com")
	require.NoError(t, err)
	_, err = repo.Insert(ctx, "Alice", "A@x.com")
	assert.NoError(t, err)
}

func TestUserRepository_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	const workers = 50
	var (
		wg        sync.WaitGroup
		successes int64
		dupes     int64
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := repo.Insert(ctx, fmt.Sprintf("user-%d", i), "same@x.com")
			switch {
			case err == nil:
				atomic.AddInt64(&successes, 1)
			case err == model.ErrDuplicateEmail:
				atomic.AddInt64(&dupes, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes)
	assert.Equal(t, int64(workers-1), dupes)
}

func TestUserRepository_ConcurrentUpdateToSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	ids := make([]uuid.UUID, 20)
	for i := range ids {
		u, err := repo.Insert(ctx, "u", fmt.Sprintf("u%d@x.com", i))
		require.NoError(t, err)
		ids[i] = u.ID
	}

	var (
		wg        sync.WaitGroup
		successes int64
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, _, err := repo.Update(ctx, id, "u", "target@x.com"); err == nil {
				atomic.AddInt64(&successes, 1)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes)
}

func TestUserRepository_List_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepositoryWithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := repo.Insert(ctx, "n", email)
		require.NoError(t, err)
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "c@x.com", users[0].Email)
	assert.Equal(t, "b@x.com", users[1].Email)
	assert.Equal(t, "a@x.com", users[2].Email)
}

func TestUserRepository_List_SameTimestampUsesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewUserRepositoryWithClock(func() time.Time { return at })

	for _, email := range []string{"a@x.com", "b@x.com"} {
		_, err := repo.Insert(ctx, "n", email)
		require.NoError(t, err)
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", users[0].Email)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(*UserRepository) (uuid.UUID, error)
		email   string
		wantErr error
	}{
		{
			name: "change name and email",
			setup: func(r *UserRepository) (uuid.UUID, error) {
				u, err := r.Insert(ctx, "Alice", "a@x.com")
				return u.ID, err
			},
			email: "a2@x.com",
		},
		{
			name: "keep own email",
			setup: func(r *UserRepository) (uuid.UUID, error) {
				u, err := r.Insert(ctx, "Alice", "a@x.com")
				return u.ID, err
			},
			email: "a@x.com",
		},
		{
			name: "email held by another user",
			setup: func(r *UserRepository) (uuid.UUID, error) {
				if _, err := r.Insert(ctx, "Bob", "b@x.com"); err != nil {
					return uuid.Nil, err
				}
				u, err := r.Insert(ctx, "Alice", "a@x.com")
				return u.ID, err
			},
			email:   "b@x.com",
			wantErr: model.ErrDuplicateEmail,
		},
		{
			name: "unknown id",
			setup: func(r *UserRepository) (uuid.UUID, error) {
				return uuid.New(), nil
			},
			email:   "a@x.com",
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewUserRepository()
			id, err := tt.setup(repo)
			require.NoError(t, err)

			var original model.User
			if tt.wantErr != model.ErrNotFound {
				original, err = repo.Get(ctx, id)
				require.NoError(t, err)
			}

			before, after, err := repo.Update(ctx, id, "Renamed", tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantErr == model.ErrDuplicateEmail {
					current, getErr := repo.Get(ctx, id)
					require.NoError(t, getErr)
					assert.Equal(t, original, current)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, original, before)
			assert.Equal(t, id, after.ID)
			assert.Equal(t, original.CreatedAt, after.CreatedAt)
			assert.Equal(t, "Renamed", after.Name)
			assert.Equal(t, tt.email, after.Email)
		})
	}
}

func TestUserRepository_UpdateFreesOldEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	u, err := repo.Insert(ctx, "Alice", "a@x.com")
	require.NoError(t, err)
	_, _, err = repo.Update(ctx, u.ID, "Alice", "a2@x.com")
	require.NoError(t, err)

	_, err = repo.Insert(ctx, "Bob", "a@x.com")
	assert.NoError(t, err)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	u, err := repo.Insert(ctx, "Alice", "a@x.com")
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, deleted)

	_, err = repo.Get(ctx, u.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = repo.Delete(ctx, u.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	reused, err := repo.Insert(ctx, "Alice", "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, u.ID, reused.ID)
}

func TestUserRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewUserRepository()
	_, err := repo.Insert(ctx, "Alice", "a@x.com")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
