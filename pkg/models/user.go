package models

import (
	"time"
)

// User is the roster view of an account. Identity and profile are owned by
// the auth service; this core only ever reads them for the sidebar.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Bio       string    `json:"bio,omitempty" db:"bio"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PartnersResponse pairs the roster (minus the viewer) with the sparse
// unseen-count map keyed by sender id.
type PartnersResponse struct {
	Users        []User         `json:"users"`
	UnseenCounts map[string]int `json:"unseen_counts"`
}
