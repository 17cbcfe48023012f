// Package model defines domain entities for the application.
package model

import "github.com/google/uuid"

// User is a person record. The ID is assigned at insertion time and never changes.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
}

// CreateUserRequest carries the caller-supplied fields of a new user.
type CreateUserRequest struct {
	FirstName string
	LastName  string
}

// NewUser builds a User from a create request and a freshly generated ID.
func (r CreateUserRequest) NewUser(id uuid.UUID) User {
	return User{
		ID:        id,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}
