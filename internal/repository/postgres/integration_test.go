//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/userdir-server/internal/model"
	repo "github.com/dtroode/userdir-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "userdir_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/userdir_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newRepository(t *testing.T) *repo.UserRepository {
	t.Helper()

	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(ctx, `TRUNCATE users`)
	require.NoError(t, err)

	return repo.NewUserRepository(conn)
}

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	ur := newRepository(t)

	alice, err := ur.Insert(ctx, "Alice", "a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, alice.ID)

	got, err := ur.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, got.Email)
	assert.True(t, alice.CreatedAt.Equal(got.CreatedAt))

	_, err = ur.Insert(ctx, "Bob", "a@x.com")
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)

	bob, err := ur.Insert(ctx, "Bob", "b@x.com")
	require.NoError(t, err)

	list, err := ur.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bob.ID, list[0].ID)

	_, _, err = ur.Update(ctx, alice.ID, "Alice", "b@x.com")
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)

	unchanged, err := ur.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", unchanged.Email)

	before, after, err := ur.Update(ctx, alice.ID, "Alice2", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", before.Name)
	assert.Equal(t, "Alice2", after.Name)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	_, _, err = ur.Update(ctx, uuid.New(), "x", "x@x.com")
	assert.ErrorIs(t, err, model.ErrNotFound)

	deleted, err := ur.Delete(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, deleted.ID)

	_, err = ur.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = ur.Delete(ctx, alice.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, ur.Ping(ctx))
}

func TestUserRepository_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	ur := newRepository(t)

	const workers = 10
	var (
		wg        sync.WaitGroup
		successes int64
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := ur.Insert(ctx, "same", "same@x.com"); err == nil {
				atomic.AddInt64(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes)
}
