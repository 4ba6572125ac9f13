package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
//
// Implementations guarantee that at most one live user holds a given email,
// checking and writing as one atomic step.
type UserStore interface {
	Insert(ctx context.Context, name, email string) (User, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, name, email string) (before User, after User, err error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Ping(ctx context.Context) error
}

// User represents a stored directory entry.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserInput carries the mutable fields of a user.
type UserInput struct {
	Name  string
	Email string
}
