package database_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/g-fabiani/blog/config"
	"github.com/g-fabiani/blog/internal/database"
	"github.com/g-fabiani/blog/internal/models"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newTestDB(c *qt.C) *gorm.DB {
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(c.TempDir(), "blog.db") + "?_foreign_keys=on"

	db, err := database.Open(cfg)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { database.Close(db) })
	c.Assert(database.Migrate(db), qt.IsNil)
	return db
}

type fixture struct {
	store                    *database.PostStore
	published, future, draft *models.Post
}

func newFixture(c *qt.C) *fixture {
	store := database.NewPostStore(newTestDB(c))
	ctx := context.Background()
	f := &fixture{
		store:     store,
		published: &models.Post{Title: "Published post", Body: "body", PubDate: ptr(now.Add(-24 * time.Hour))},
		future:    &models.Post{Title: "Future post", Body: "body", PubDate: ptr(now.Add(24 * time.Hour))},
		draft:     &models.Post{Title: "Draft post", Body: "body"},
	}
	c.Assert(store.Create(ctx, f.published, []string{"go", "web"}), qt.IsNil)
	c.Assert(store.Create(ctx, f.future, []string{"go", "future"}), qt.IsNil)
	c.Assert(store.Create(ctx, f.draft, []string{"draft"}), qt.IsNil)
	return f
}

func titles(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func tagNames(tags []models.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func TestFetchPublished(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	posts, err := f.store.FetchPublished(context.Background(), now)
	c.Assert(err, qt.IsNil)
	c.Assert(titles(posts), qt.DeepEquals, []string{"Published post"})
}

func TestList(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	c.Run("anonymous sees published posts only", func(c *qt.C) {
		posts, total, err := f.store.List(ctx, database.ListOptions{Now: now})
		c.Assert(err, qt.IsNil)
		c.Assert(total, qt.Equals, int64(1))
		c.Assert(titles(posts), qt.DeepEquals, []string{"Published post"})
	})

	c.Run("authenticated sees drafts first then newest", func(c *qt.C) {
		posts, total, err := f.store.List(ctx, database.ListOptions{Now: now, IncludeUnpublished: true})
		c.Assert(err, qt.IsNil)
		c.Assert(total, qt.Equals, int64(3))
		c.Assert(titles(posts), qt.DeepEquals, []string{"Draft post", "Future post", "Published post"})
	})

	c.Run("pagination keeps the total", func(c *qt.C) {
		posts, total, err := f.store.List(ctx, database.ListOptions{Now: now, IncludeUnpublished: true, Limit: 2, Offset: 2})
		c.Assert(err, qt.IsNil)
		c.Assert(total, qt.Equals, int64(3))
		c.Assert(titles(posts), qt.DeepEquals, []string{"Published post"})
	})
}

func TestListByTag(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	goTag := f.published.Tags[0]
	c.Assert(goTag.Name, qt.Equals, "go")

	posts, total, err := f.store.ListByTag(ctx, goTag.ID, now, 0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(total, qt.Equals, int64(1))
	c.Assert(titles(posts), qt.DeepEquals, []string{"Published post"})

	// only the draft carries this tag
	draftTag := f.draft.Tags[0]
	posts, total, err = f.store.ListByTag(ctx, draftTag.ID, now, 0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(total, qt.Equals, int64(0))
	c.Assert(posts, qt.HasLen, 0)
}

func TestPublishedTags(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	tags, err := f.store.PublishedTags(ctx, now)
	c.Assert(err, qt.IsNil)
	c.Assert(tagNames(tags), qt.DeepEquals, []string{"go", "web"})

	all, err := f.store.AllTags(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(tagNames(all), qt.DeepEquals, []string{"draft", "future", "go", "web"})

	// publishing the future post exposes its tags
	later := now.Add(48 * time.Hour)
	tags, err = f.store.PublishedTags(ctx, later)
	c.Assert(err, qt.IsNil)
	c.Assert(tagNames(tags), qt.DeepEquals, []string{"future", "go", "web"})
}

func TestGetVisible(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	tests := []struct {
		name               string
		post               *models.Post
		includeUnpublished bool
		wantErr            error
	}{
		{name: "published, anonymous", post: f.published},
		{name: "future, anonymous", post: f.future, wantErr: database.ErrPostNotFound},
		{name: "draft, anonymous", post: f.draft, wantErr: database.ErrPostNotFound},
		{name: "future, authenticated", post: f.future, includeUnpublished: true},
		{name: "draft, authenticated", post: f.draft, includeUnpublished: true},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			post, err := f.store.GetVisible(ctx, tt.post.ID, tt.includeUnpublished, now)
			if tt.wantErr != nil {
				c.Assert(err, qt.ErrorIs, tt.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(post.Title, qt.Equals, tt.post.Title)
		})
	}

	_, err := f.store.Get(ctx, 9999)
	c.Assert(err, qt.ErrorIs, database.ErrPostNotFound)
}

func TestUpdateReplacesTags(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	post, err := f.store.Get(ctx, f.published.ID)
	c.Assert(err, qt.IsNil)
	before := post.UpdatedAt

	post.Title = "Renamed"
	c.Assert(f.store.Update(ctx, post, []string{" web ", "", "news", "web"}), qt.IsNil)

	post, err = f.store.Get(ctx, f.published.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(post.Title, qt.Equals, "Renamed")
	c.Assert(post.TagNames(), qt.DeepEquals, []string{"news", "web"})
	c.Assert(post.UpdatedAt.Before(before), qt.IsFalse)
	c.Assert(post.PubDate.Equal(*f.published.PubDate), qt.IsTrue)
}

func TestSetPubDate(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	rome, err := time.LoadLocation("Europe/Rome")
	c.Assert(err, qt.IsNil)
	at := time.Date(2030, 1, 2, 10, 30, 0, 0, rome)

	c.Assert(f.store.SetPubDate(ctx, f.draft, at), qt.IsNil)

	post, err := f.store.Get(ctx, f.draft.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(post.PubDate.Equal(at), qt.IsTrue)
	c.Assert(post.IsScheduled(now), qt.IsTrue)
}

func TestPublishMany(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	published, skipped, err := f.store.PublishMany(ctx, []uint{f.published.ID, f.draft.ID, f.future.ID}, now)
	c.Assert(err, qt.IsNil)
	c.Assert(published, qt.DeepEquals, []uint{f.draft.ID, f.future.ID})
	c.Assert(skipped, qt.DeepEquals, []uint{f.published.ID})

	posts, _, err := f.store.List(ctx, database.ListOptions{Now: now})
	c.Assert(err, qt.IsNil)
	c.Assert(posts, qt.HasLen, 3)

	_, _, err = f.store.PublishMany(ctx, []uint{9999}, now)
	c.Assert(err, qt.ErrorIs, database.ErrPostNotFound)
}

func TestDelete(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	before, err := f.store.Count(ctx)
	c.Assert(err, qt.IsNil)

	c.Assert(f.store.Delete(ctx, f.published), qt.IsNil)

	after, err := f.store.Count(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(after, qt.Equals, before-1)

	_, err = f.store.Get(ctx, f.published.ID)
	c.Assert(err, qt.ErrorIs, database.ErrPostNotFound)

	// tags outlive the posts they were attached to
	all, err := f.store.AllTags(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(tagNames(all), qt.Contains, "web")

	c.Assert(f.store.Delete(ctx, f.published), qt.ErrorIs, database.ErrPostNotFound)
}

func TestTag(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	ctx := context.Background()

	tag, err := f.store.Tag(ctx, f.published.Tags[1].ID)
	c.Assert(err, qt.IsNil)
	c.Assert(tag.Name, qt.Equals, "web")

	_, err = f.store.Tag(ctx, 9999)
	c.Assert(err, qt.ErrorIs, database.ErrTagNotFound)
}

func TestConcurrentTagCreation(t *testing.T) {
	c := qt.New(t)
	store := database.NewPostStore(newTestDB(c))
	ctx := context.Background()

	const writers = 4
	var g errgroup.Group
	for i := range writers {
		g.Go(func() error {
			post := &models.Post{Title: fmt.Sprintf("Post %d", i), Body: "body"}
			return store.Create(ctx, post, []string{"shared"})
		})
	}
	c.Assert(g.Wait(), qt.IsNil)

	tags, err := store.AllTags(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(tagNames(tags), qt.DeepEquals, []string{"shared"})

	posts, total, err := store.List(ctx, database.ListOptions{Now: now, IncludeUnpublished: true})
	c.Assert(err, qt.IsNil)
	c.Assert(total, qt.Equals, int64(writers))
	for _, post := range posts {
		c.Assert(post.TagNames(), qt.DeepEquals, []string{"shared"})
	}
}

func TestNormalizeTagNames(t *testing.T) {
	c := qt.New(t)

	c.Assert(database.NormalizeTagNames([]string{" go", "", "web ", "go", "  "}), qt.DeepEquals, []string{"go", "web"})
	c.Assert(database.NormalizeTagNames(nil), qt.HasLen, 0)
}

func TestCleanupExpiredSessions(t *testing.T) {
	c := qt.New(t)
	db := newTestDB(c)
	ctx := context.Background()

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	c.Assert(db.Create(user).Error, qt.IsNil)
	c.Assert(db.Create(&models.Session{UserID: user.ID, UUID: "expired", Expires: now.Add(-time.Hour)}).Error, qt.IsNil)
	c.Assert(db.Create(&models.Session{UserID: user.ID, UUID: "valid", Expires: now.Add(time.Hour)}).Error, qt.IsNil)

	n, err := database.CleanupExpiredSessions(ctx, db, now)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(1))
}

func TestIsUniqueViolation(t *testing.T) {
	c := qt.New(t)
	db := newTestDB(c)

	c.Assert(db.Create(&models.Tag{Name: "go"}).Error, qt.IsNil)
	err := db.Create(&models.Tag{Name: "go"}).Error
	c.Assert(database.IsUniqueViolation(err), qt.IsTrue)
	c.Assert(database.IsUniqueViolation(gorm.ErrDuplicatedKey), qt.IsTrue)
	c.Assert(database.IsUniqueViolation(gorm.ErrRecordNotFound), qt.IsFalse)
	c.Assert(database.IsUniqueViolation(nil), qt.IsFalse)
}
