package model

import "time"

// Session is the persisted part of one browser's application state.
//
// The live state (loading flag, fetched repos, last error, location) only
// exists in the in-memory store. What survives a restart is what the user
// typed, so that the next visit to "/" can auto-submit the stored username.
type Session struct {
	ID        string    `json:"id"        db:"id"`
	Username  string    `json:"username"  db:"username"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
