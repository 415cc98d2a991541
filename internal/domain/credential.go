package domain

import "time"

// Credential is the authentication record. It shares its ID with the Profile.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
