// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"errors"

	"github.com/penshort/userapi/internal/model"
)

// ErrInvalidInput is returned when a request body is missing a required field.
var ErrInvalidInput = errors.New("invalid input")

// CreateUserRequest represents the request body for creating a user.
// Pointer fields distinguish an absent or null field from an empty string.
type CreateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ToModel validates presence of both names and converts to the domain request.
func (r CreateUserRequest) ToModel() (model.CreateUserRequest, error) {
	if r.FirstName == nil {
		return model.CreateUserRequest{}, errors.Join(ErrInvalidInput, errors.New("first_name is required"))
	}
	if r.LastName == nil {
		return model.CreateUserRequest{}, errors.Join(ErrInvalidInput, errors.New("last_name is required"))
	}
	return model.CreateUserRequest{
		FirstName: *r.FirstName,
		LastName:  *r.LastName,
	}, nil
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
