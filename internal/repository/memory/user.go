package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/userdir-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type entry struct {
	user model.User
	seq  uint64
}

// UserRepository keeps users in process memory. A single lock covers the id
// map and the email index so uniqueness checks and writes are atomic.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]entry
	byEmail map[string]uuid.UUID
	seq     uint64
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return NewUserRepositoryWithClock(time.Now)
}

// NewUserRepositoryWithClock allows injecting the creation clock (used in tests).
func NewUserRepositoryWithClock(now func() time.Time) *UserRepository {
	return &UserRepository{
		byID:    make(map[uuid.UUID]entry),
		byEmail: make(map[string]uuid.UUID),
		now:     now,
	}
}

func (r *UserRepository) Insert(ctx context.Context, name, email string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[email]; taken {
		return model.User{}, model.ErrDuplicateEmail
	}

	user := model.User{
		ID:        r.newID(),
		Name:      name,
		Email:     email,
		CreatedAt: r.now().UTC(),
	}
	r.seq++
	r.byID[user.ID] = entry{user: user, seq: r.seq}
	r.byEmail[email] = user.ID

	return user, nil
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return e.user, nil
}

// List returns a snapshot ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entries := make([]entry, 0, len(r.byID))
	for _, e := range r.byID {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.user.CreatedAt.Equal(b.user.CreatedAt) {
			return a.user.CreatedAt.After(b.user.CreatedAt)
		}
		return a.seq > b.seq
	})

	users := make([]model.User, len(entries))
	for i, e := range entries {
		users[i] = e.user
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, name, email string) (model.User, model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, model.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return model.User{}, model.User{}, model.ErrNotFound
	}
	if holder, taken := r.byEmail[email]; taken && holder != id {
		return model.User{}, model.User{}, model.ErrDuplicateEmail
	}

	before := e.user
	after := before
	after.Name = name
	after.Email = email

	delete(r.byEmail, before.Email)
	r.byEmail[email] = id
	r.byID[id] = entry{user: after, seq: e.seq}

	return before, after, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, e.user.Email)

	return e.user, nil
}

func (r *UserRepository) Ping(_ context.Context) error {
	return nil
}

// newID must be called with r.mu held.
func (r *UserRepository) newID() uuid.UUID {
	for {
		id := uuid.New()
		if _, exists := r.byID[id]; !exists {
			return id
		}
	}
}
