package db

import "time"

// Entry is one named session value with its own expiration.
type Entry struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name so renaming the struct does not orphan stored sessions.
func (Entry) TableName() string { return "session_entries" }

// Expired reports whether the entry is past its expiration at the given instant.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
