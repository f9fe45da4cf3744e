package domain

import "time"

type ID int64

// User is the stored identity. PasswordHash and Salt never leave the service.
type User struct {
	ID           ID
	Email        string
	PasswordHash string
	Salt         string
	Verified     bool
	LastLoginAt  *time.Time
	LastActiveAt *time.Time
	CreatedAt    time.Time
}
