package models

// User is an authenticated author of the blog.
type User struct {
	ID       uint   `gorm:"primaryKey"`
	Email    string `gorm:"size:50;not null;uniqueIndex"`
	Username string `gorm:"size:20;not null;uniqueIndex"`
	Password string `gorm:"not null"` // bcrypt hash
}
