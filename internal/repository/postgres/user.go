package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/userdir-server/internal/model"
)

// uniqueViolation is the SQLSTATE raised when users_email_key is violated.
const uniqueViolation = "23505"

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db  *Connection
	now func() time.Time
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *UserRepository) Insert(ctx context.Context, name, email string) (model.User, error) {
	query := `INSERT INTO users (id, name, email, created_at)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, name, email, created_at`

	var user model.User
	err := r.db.QueryRow(ctx, query,
		uuid.New(), name, email, r.now().UTC().Truncate(time.Microsecond),
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT id, name, email, created_at FROM users WHERE id = $1`

	var user model.User
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT id, name, email, created_at FROM users ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Update locks the row, then rewrites name and email in the same transaction.
// Any failure rolls the transaction back, leaving the row untouched.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, name, email string) (model.User, model.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.User{}, model.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var before model.User
	err = tx.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1 FOR UPDATE`, id,
	).Scan(&before.ID, &before.Name, &before.Email, &before.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.User{}, model.ErrNotFound
		}
		return model.User{}, model.User{}, fmt.Errorf("failed to lock user: %w", err)
	}

	var after model.User
	err = tx.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3 WHERE id = $1
		 RETURNING id, name, email, created_at`, id, name, email,
	).Scan(&after.ID, &after.Name, &after.Email, &after.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.User{}, model.ErrDuplicateEmail
		}
		return model.User{}, model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.User{}, model.ErrDuplicateEmail
		}
		return model.User{}, model.User{}, fmt.Errorf("failed to commit user update: %w", err)
	}

	before.CreatedAt = before.CreatedAt.UTC()
	after.CreatedAt = after.CreatedAt.UTC()
	return before, after, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING id, name, email, created_at`

	var user model.User
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to delete user: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
