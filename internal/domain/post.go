package domain

import "time"

// Post represents a single feed entry owned by exactly one user.
type Post struct {
	ID        string
	Title     string
	Content   string
	ImageURL  string
	CreatorID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Creator is the denormalized owner summary attached to post responses
// and create events.
type Creator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
