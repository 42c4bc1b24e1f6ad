package models

// Tag labels posts. Names are unique.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:60;not null;uniqueIndex"`
}
