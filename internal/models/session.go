package models

import "time"

// Session is a login of a user, identified by the UUID stored in the session cookie.
type Session struct {
	ID      uint   `gorm:"primaryKey"`
	UserID  uint   `gorm:"not null;index"`
	User    User   `gorm:"constraint:OnDelete:CASCADE;"`
	UUID    string `gorm:"size:36;not null;uniqueIndex"`
	Expires time.Time
}
