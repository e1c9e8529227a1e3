// Package store persists user and voice records in Postgres.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type Store interface {
	CreateUser(ctx context.Context, r CreateUserRequest) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UserExists(ctx context.Context, id string) (bool, error)
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, r UpdateUserRequest) (User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	ListUsers(ctx context.Context) ([]User, error)

	CreateVoice(ctx context.Context, r CreateVoiceRequest) (Voice, error)
	GetVoice(ctx context.Context, id string) (Voice, error)
	VoiceExists(ctx context.Context, id string) (bool, error)
	DeleteVoice(ctx context.Context, id string) (bool, error)
	ListVoices(ctx context.Context) ([]Voice, error)
	ListVoicesByUser(ctx context.Context, userID string) ([]Voice, error)

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type CreateUserRequest struct {
	Email    string
	Name     *string
	Picture  *string
	Provider string
}

// UpdateUserRequest applies patch semantics: nil fields leave the stored
// value untouched.
type UpdateUserRequest struct {
	ID      string
	Name    *string
	Picture *string
}

type CreateVoiceRequest struct {
	UserID        string
	Filename      string
	FilePath      string
	EmbeddingPath *string
	Duration      *float64
	SampleRate    *int
	Name          *string
	Description   *string
}
