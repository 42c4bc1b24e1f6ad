package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/g-fabiani/blog/internal/models"
)

// PostStore holds every query the blog runs on posts and tags.
type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

// Published restricts a posts query to posts visible to anonymous readers at now.
func Published(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.pub_date IS NOT NULL AND posts.pub_date <= ?", now.UTC())
	}
}

// newestFirst orders drafts first, then by descending publication date.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.pub_date IS NULL DESC").Order("posts.pub_date DESC").Order("posts.id DESC")
}

// ListOptions selects a page of the post listing.
type ListOptions struct {
	IncludeUnpublished bool
	Now                time.Time
	Limit              int
	Offset             int
}

// FetchPublished returns every post published at now, newest first.
func (s *PostStore) FetchPublished(ctx context.Context, now time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Scopes(Published(now)).Preload("Tags").
		Order("posts.pub_date DESC").Order("posts.id DESC").Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load published posts: %w", err)
	}
	return posts, nil
}

// List returns a page of posts and the number of posts across all pages.
func (s *PostStore) List(ctx context.Context, opts ListOptions) ([]models.Post, int64, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Post{})
		if !opts.IncludeUnpublished {
			q = q.Scopes(Published(opts.Now))
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []models.Post
	q := base().Preload("Tags").Preload("Author").Scopes(newestFirst)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit).Offset(opts.Offset)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load posts: %w", err)
	}
	return posts, total, nil
}

// ListByTag returns a page of the posts tagged with tagID that are published
// at now. Unpublished posts are never returned.
func (s *PostStore) ListByTag(ctx context.Context, tagID uint, now time.Time, limit, offset int) ([]models.Post, int64, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Post{}).
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ?", tagID).
			Scopes(Published(now))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts of tag %d: %w", tagID, err)
	}

	var posts []models.Post
	q := base().Preload("Tags").Preload("Author").Order("posts.pub_date DESC").Order("posts.id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load posts of tag %d: %w", tagID, err)
	}
	return posts, total, nil
}

// Recent returns at most limit published posts, newest first.
func (s *PostStore) Recent(ctx context.Context, now time.Time, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Scopes(Published(now)).
		Order("posts.pub_date DESC").Order("posts.id DESC").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent posts: %w", err)
	}
	return posts, nil
}

// Get loads a post with its tags and author, whatever its state.
func (s *PostStore) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.name")
	}).Preload("Author").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	return &post, nil
}

// GetVisible loads a post the way a reader sees it: unless includeUnpublished
// is set, posts that are not published at now are reported as not found.
func (s *PostStore) GetVisible(ctx context.Context, id uint, includeUnpublished bool, now time.Time) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !includeUnpublished && !post.IsPublished(now) {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// Count returns the number of posts in any state.
func (s *PostStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// Create inserts post and attaches the tags named in tagNames.
func (s *PostStore) Create(ctx context.Context, post *models.Post, tagNames []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		return s.replaceTags(tx, post, tagNames)
	})
}

// Update saves the fields of post and replaces its tags with tagNames.
func (s *PostStore) Update(ctx context.Context, post *models.Post, tagNames []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return fmt.Errorf("failed to update post %d: %w", post.ID, err)
		}
		return s.replaceTags(tx, post, tagNames)
	})
}

// SetPubDate stores a new publication date for post.
func (s *PostStore) SetPubDate(ctx context.Context, post *models.Post, at time.Time) error {
	at = at.UTC()
	post.PubDate = &at
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error; err != nil {
		return fmt.Errorf("failed to set publication date of post %d: %w", post.ID, err)
	}
	return nil
}

// PublishMany publishes at now every post in ids that is not published yet.
// It returns the published ids and the ids left untouched because they were
// already published.
func (s *PostStore) PublishMany(ctx context.Context, ids []uint, now time.Time) (published, skipped []uint, err error) {
	for _, id := range ids {
		post, err := s.Get(ctx, id)
		if err != nil {
			return published, skipped, err
		}
		if post.IsPublished(now) {
			skipped = append(skipped, id)
			continue
		}
		if err := s.SetPubDate(ctx, post, now); err != nil {
			return published, skipped, err
		}
		published = append(published, id)
	}
	return published, skipped, nil
}

// Delete removes post and its tag links.
func (s *PostStore) Delete(ctx context.Context, post *models.Post) error {
	result := s.db.WithContext(ctx).Select("Tags").Delete(post)
	if result.Error != nil {
		return fmt.Errorf("failed to delete post %d: %w", post.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Tag loads a tag by id.
func (s *PostStore) Tag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to load tag %d: %w", id, err)
	}
	return &tag, nil
}

// AllTags returns every tag ordered by name.
func (s *PostStore) AllTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	return tags, nil
}

// PublishedTags returns the tags attached to at least one post published at
// now, without duplicates, ordered by name.
func (s *PostStore) PublishedTags(ctx context.Context, now time.Time) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Model(&models.Tag{}).
		Distinct("tags.id", "tags.name").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Scopes(Published(now)).
		Order("tags.name").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load published tags: %w", err)
	}
	return tags, nil
}

// replaceTags clears the tags of post and rebuilds them from names.
func (s *PostStore) replaceTags(tx *gorm.DB, post *models.Post, names []string) error {
	if err := tx.Model(post).Association("Tags").Clear(); err != nil {
		return fmt.Errorf("failed to clear tags of post %d: %w", post.ID, err)
	}

	names = NormalizeTagNames(names)
	if len(names) == 0 {
		post.Tags = nil
		return nil
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tag, err := s.ensureTag(tx, name)
		if err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	if err := tx.Model(post).Association("Tags").Append(tags); err != nil {
		return fmt.Errorf("failed to tag post %d: %w", post.ID, err)
	}
	post.Tags = tags
	return nil
}

// ensureTag tries to create the tag and falls back to the existing row when
// another writer created it first.
func (s *PostStore) ensureTag(tx *gorm.DB, name string) (models.Tag, error) {
	tag := models.Tag{Name: name}
	err := tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&tag).Error
	})
	if err == nil {
		return tag, nil
	}
	if !IsUniqueViolation(err) {
		return tag, fmt.Errorf("failed to create tag %q: %w", name, err)
	}

	slog.Debug("tag already exists, reusing it", "tag", name)
	tag = models.Tag{}
	if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
		return tag, fmt.Errorf("failed to load tag %q: %w", name, err)
	}
	return tag, nil
}

// NormalizeTagNames trims names, drops empty ones and duplicates, keeping the
// first occurrence order.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
