package store

import "time"

// User is an account created through Google or Firebase sign-in. Email is
// stored lowercased and unique.
type User struct {
	ID        string
	Email     string
	Name      *string
	Picture   *string
	Provider  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Voice is an uploaded voice sample owned by a user. Deleting the owner
// cascades to their voices.
type Voice struct {
	ID            string
	UserID        string
	Filename      string
	FilePath      string
	EmbeddingPath *string
	Duration      *float64
	SampleRate    *int
	Name          *string
	Description   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
