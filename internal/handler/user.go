package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/penshort/userapi/internal/handler/dto"
	"github.com/penshort/userapi/internal/model"
	"github.com/penshort/userapi/internal/service"
)

// UserService is the business logic the user handler drives.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
}

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, r, "list users failed", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// Get handles GET /user/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "User ID must be a UUID")
		return
	}

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.internalError(w, r, "get user failed", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Create handles POST /user.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}
	// Exactly one JSON value: anything after the object is malformed input.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if !isBodyTooLarge(err) {
			err = errTrailingData
		}
		writeDecodeError(w, err)
		return
	}

	input, err := req.ToModel()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "first_name and last_name are required")
		return
	}

	user, err := h.svc.CreateUser(r.Context(), input)
	if err != nil {
		h.internalError(w, r, "create user failed", err)
		return
	}

	h.logger.InfoContext(r.Context(), "user_created",
		"user_id", user.ID.String(),
	)

	writeJSON(w, http.StatusCreated, user)
}

var errTrailingData = errors.New("trailing data after JSON object")

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// writeDecodeError maps a request body decoding failure to its response.
func writeDecodeError(w http.ResponseWriter, err error) {
	if isBodyTooLarge(err) {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		msg := "Request body must be a JSON object"
		if typeErr.Field != "" {
			msg = typeErr.Field + " must be a string"
		}
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", msg)
		return
	}

	writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}

// internalError logs err, records it on the request span and answers with a
// generic 500 body.
func (h *UserHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	h.logger.ErrorContext(r.Context(), msg,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}
