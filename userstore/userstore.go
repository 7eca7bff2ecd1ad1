// Package userstore defines the external user lookup contract consumed by
// the security validator's user-status check.
package userstore

import (
	"context"
	"errors"
)

// ErrUserNotFound indicates the backing store has no such user.
var ErrUserNotFound = errors.New("userstore: user not found")

// User is the subset of the user record the validator cares about.
type User struct {
	ID         string
	Email      string
	Role       string
	IsVerified bool
	IsActive   bool
}

// Store looks up user records. Implementations should honor the context
// deadline: the validator calls with a bounded timeout and fails closed.
type Store interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
}
