package models

import "time"

// Post is a blog entry. A nil PubDate marks a draft, a PubDate in the future
// marks a scheduled post.
type Post struct {
	ID        uint       `gorm:"primaryKey"`
	Title     string     `gorm:"size:100;not null"`
	Subtitle  string     `gorm:"size:200"`
	Body      string     `gorm:"type:text;not null"`
	PubDate   *time.Time `gorm:"index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"` // set on every save
	AuthorID  *uint
	Author    *User `gorm:"constraint:OnDelete:SET NULL;"`
	Tags      []Tag `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE;"`
}

// IsDraft reports whether the post has no publication date.
func (p *Post) IsDraft() bool {
	return p.PubDate == nil
}

// IsPublished reports whether the post is visible to anonymous readers at now.
func (p *Post) IsPublished(now time.Time) bool {
	return !p.IsDraft() && !p.PubDate.After(now)
}

// IsScheduled reports whether the post has a publication date after now.
func (p *Post) IsScheduled(now time.Time) bool {
	return !p.IsDraft() && !p.IsPublished(now)
}

// DaysFromPublicationToUpdate returns the whole days between publication and
// the last update of a published post, 0 otherwise.
func (p *Post) DaysFromPublicationToUpdate(now time.Time) int {
	if !p.IsPublished(now) {
		return 0
	}
	days := int(p.UpdatedAt.Sub(*p.PubDate) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// CanBeModifiedBy reports whether user may edit, delete, publish or schedule
// the post. Posts without an author belong to every user.
func (p *Post) CanBeModifiedBy(user *User) bool {
	if p.AuthorID == nil {
		return true
	}
	return user != nil && *p.AuthorID == user.ID
}

// TagNames returns the names of the loaded tags.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func (p *Post) String() string {
	return p.Title
}
