package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
	"github.com/dtroode/userdir-server/pkg/validator"
)

// User validates directory requests and applies them to the store.
// It keeps no copies of users between calls.
type User struct {
	store    model.UserStore
	notifier model.Notifier
	logger   *logger.Logger
	now      func() time.Time
}

func NewUser(store model.UserStore, notifier model.Notifier, logger *logger.Logger) *User {
	return &User{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *User) CreateUser(ctx context.Context, input model.UserInput) (model.User, error) {
	name, email, err := normalize(input)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.store.Insert(ctx, name, email)
	if errors.Is(err, model.ErrDuplicateEmail) {
		s.logger.Info("User service: email already exists", "email", email)
		return model.User{}, model.NewDuplicateEmailError()
	}
	if err != nil {
		s.logger.Error("User service: failed to insert user", "email", email, "error", err.Error())
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	s.emit(ctx, model.EventUserAdded, user.ID, map[string]any{
		"name":  user.Name,
		"email": user.Email,
	})

	return user, nil
}

func (s *User) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := s.store.Get(ctx, id)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// ListUsers returns all live users, newest first.
func (s *User) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("User service: failed to list users", "error", err.Error())
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (s *User) UpdateUser(ctx context.Context, id uuid.UUID, input model.UserInput) (model.User, error) {
	name, email, err := normalize(input)
	if err != nil {
		return model.User{}, err
	}

	before, after, err := s.store.Update(ctx, id, name, email)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.User{}, fmt.Errorf("failed to update user %s: %w", id, err)
	case errors.Is(err, model.ErrDuplicateEmail):
		s.logger.Info("User service: email already exists", "user_id", id.String(), "email", email)
		return model.User{}, model.NewDuplicateEmailError()
	case err != nil:
		s.logger.Error("User service: failed to update user", "user_id", id.String(), "error", err.Error())
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	s.emit(ctx, model.EventUserUpdated, after.ID, map[string]any{
		"before": snapshot(before),
		"after":  snapshot(after),
	})

	return after, nil
}

func (s *User) DeleteUser(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.Delete(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	if err != nil {
		s.logger.Error("User service: failed to delete user", "user_id", id.String(), "error", err.Error())
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.emit(ctx, model.EventUserDeleted, deleted.ID, snapshot(deleted))

	return nil
}

// emit hands the event to the notifier after the mutation has committed.
// The request context may end before delivery, so the event is detached from it.
func (s *User) emit(ctx context.Context, name string, userID uuid.UUID, details map[string]any) {
	s.notifier.Notify(context.WithoutCancel(ctx), model.Event{
		Name:      name,
		UserID:    &userID,
		Details:   details,
		Timestamp: s.now().UTC(),
	})
}

func snapshot(u model.User) map[string]any {
	return map[string]any{
		"name":  u.Name,
		"email": u.Email,
	}
}

func normalize(input model.UserInput) (string, string, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if errs := validator.ValidateUser(name, email); errs.HasErrors() {
		return "", "", &model.ValidationError{Fields: errs}
	}

	return name, email, nil
}
