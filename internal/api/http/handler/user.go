package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
)

// maxBodyBytes caps request bodies on create and update.
const maxBodyBytes = 1 << 20

// UserService is the directory behaviour the handlers depend on.
type UserService interface {
	CreateUser(ctx context.Context, input model.UserInput) (model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input model.UserInput) (model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type User struct {
	service UserService
	logger  *logger.Logger
}

func NewUser(service UserService, logger *logger.Logger) *User {
	return &User{service: service, logger: logger}
}

func (h *User) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "list users", err)
		return
	}

	if users == nil {
		users = []model.User{}
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *User) Create(w http.ResponseWriter, r *http.Request) {
	input, err := decodeUserInput(w, r)
	if err != nil {
		writeServiceError(w, h.logger, "decode user", err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, "create user", err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *User) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	input, err := decodeUserInput(w, r)
	if err != nil {
		writeServiceError(w, h.logger, "decode user", err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, h.logger, "update user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *User) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "delete user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses {id}. An id that is not a UUID cannot name a stored user.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// decodeUserInput reads {name, email}. Missing or null fields decode as empty
// and are rejected by the service; values of any other JSON type than string
// are rejected here.
func decodeUserInput(w http.ResponseWriter, r *http.Request) (model.UserInput, error) {
	var body map[string]json.RawMessage
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.UserInput{}, model.NewValidationError("body", "Request body is required")
		}
		return model.UserInput{}, model.NewValidationError("body", "Invalid JSON body")
	}

	fields := make(map[string]string)
	name := stringField(body, "name", "Name", fields)
	email := stringField(body, "email", "Email", fields)
	if len(fields) > 0 {
		return model.UserInput{}, &model.ValidationError{Fields: fields}
	}

	return model.UserInput{Name: name, Email: email}, nil
}

func stringField(body map[string]json.RawMessage, key, label string, fields map[string]string) string {
	raw, ok := body[key]
	if !ok || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		fields[key] = label + " must be a string"
		return ""
	}
	return s
}
