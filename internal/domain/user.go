package domain

import "time"

// User represents a registered account of the feed.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PostIDs      []string
}

// DefaultStatus is assigned to freshly registered users.
const DefaultStatus = "I am new!"
