package models

import "time"

type AccessType string

const (
	AccessPublic            AccessType = "PUBLIC"
	AccessPasswordProtected AccessType = "PASSWORD_PROTECTED"
	AccessJWTProtected      AccessType = "JWT_PROTECTED"
)

// Event is a gallery owning photos. Rows are managed by the event service;
// this module only reads them.
type Event struct {
	ID         int64      `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Slug       string     `json:"slug" db:"slug"`
	AccessType AccessType `json:"access_type" db:"access_type"`
	Published  bool       `json:"published" db:"published"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
