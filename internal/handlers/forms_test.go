package handlers

import (
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/microcosm-cc/bluemonday"

	"github.com/g-fabiani/blog/internal/i18n"
)

func TestSafeNext(t *testing.T) {
	c := qt.New(t)

	tests := []struct{ next, want string }{
		{"", "/"},
		{"/post/3", "/post/3"},
		{"/?page=2", "/?page=2"},
		{"//evil.example.com", "/"},
		{"/\\evil.example.com", "/"},
		{"https://evil.example.com", "/"},
		{"post/3", "/"},
		{"/\t/evil.example", "/"},
		{"/\n/evil.example", "/"},
		{"/\r\n//evil.example", "/"},
		{"/post/3\x00", "/"},
		{"/post/3?next=%2F%2Fevil.example", "/post/3?next=%2F%2Fevil.example"},
	}
	for _, tt := range tests {
		c.Check(safeNext(tt.next), qt.Equals, tt.want, qt.Commentf("next %q", tt.next))
	}
}

func TestPostFormValidate(t *testing.T) {
	p := i18n.NewPrinter("en")
	policy := bluemonday.UGCPolicy()

	tests := []struct {
		name string
		form postForm
		want map[string]string
	}{{
		name: "valid",
		form: postForm{Title: "Title", Body: "<p>text</p>", Tags: []string{"go"}},
	}, {
		name: "title at the limit counts runes",
		form: postForm{Title: strings.Repeat("è", maxTitleLen), Body: "text"},
	}, {
		name: "everything wrong",
		form: postForm{
			Title:    strings.Repeat("a", maxTitleLen+1),
			Subtitle: strings.Repeat("a", maxSubtitleLen+1),
			Body:     "<script>alert(1)</script>",
			Tags:     []string{"ok", strings.Repeat("t", maxTagLen+1)},
		},
		want: map[string]string{
			"title":    "Ensure this value has at most 100 characters",
			"subtitle": "Ensure this value has at most 200 characters",
			"body":     "This field is required",
			"tags":     "Tag “" + strings.Repeat("t", maxTagLen+1) + "” is longer than 60 characters",
		},
	}, {
		name: "missing title",
		form: postForm{Body: "text"},
		want: map[string]string{"title": "This field is required"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(tt.form.validate(p, policy), qt.DeepEquals, tt.want)
		})
	}
}

func TestParsePubDate(t *testing.T) {
	c := qt.New(t)
	rome, err := time.LoadLocation("Europe/Rome")
	c.Assert(err, qt.IsNil)

	at, err := parsePubDate(" 2024-07-01T09:15 ", rome)
	c.Assert(err, qt.IsNil)
	c.Assert(at.UTC(), qt.Equals, time.Date(2024, 7, 1, 7, 15, 0, 0, time.UTC))

	_, err = parsePubDate("01/07/2024 09:15", rome)
	c.Assert(err, qt.IsNotNil)
}

func TestTotalPages(t *testing.T) {
	c := qt.New(t)

	c.Assert(totalPages(0, 4), qt.Equals, 1)
	c.Assert(totalPages(4, 4), qt.Equals, 1)
	c.Assert(totalPages(5, 4), qt.Equals, 2)
	c.Assert(totalPages(9, 4), qt.Equals, 3)
}
