package handlers

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/message"

	"github.com/g-fabiani/blog/internal/database"
	"github.com/g-fabiani/blog/internal/i18n"
	"github.com/g-fabiani/blog/internal/models"
)

const (
	maxTitleLen    = 100
	maxSubtitleLen = 200
	maxTagLen      = 60

	// dateInputLayout is the value format of <input type="datetime-local">.
	dateInputLayout = "2006-01-02T15:04"
)

// countRunes counts the number of runes (Unicode characters) in a string
func countRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// postForm is the create and update form.
type postForm struct {
	Title    string
	Subtitle string
	Body     string
	Author   bool
	Tags     []string
}

func parsePostForm(c *gin.Context) postForm {
	return postForm{
		Title:    strings.TrimSpace(c.PostForm("title")),
		Subtitle: strings.TrimSpace(c.PostForm("subtitle")),
		Body:     c.PostForm("body"),
		Author:   c.PostForm("author") != "",
		Tags:     database.NormalizeTagNames(c.PostFormArray("tags")),
	}
}

func formFromPost(post *models.Post) postForm {
	return postForm{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		Body:     post.Body,
		Author:   post.AuthorID != nil,
		Tags:     post.TagNames(),
	}
}

// validate returns the field errors of the form, nil when it is valid.
func (f postForm) validate(p *message.Printer, policy *bluemonday.Policy) map[string]string {
	errs := make(map[string]string)
	switch n := countRunes(f.Title); {
	case n == 0:
		errs["title"] = p.Sprintf(i18n.ErrRequired)
	case n > maxTitleLen:
		errs["title"] = p.Sprintf(i18n.ErrTooLong, maxTitleLen)
	}
	if countRunes(f.Subtitle) > maxSubtitleLen {
		errs["subtitle"] = p.Sprintf(i18n.ErrTooLong, maxSubtitleLen)
	}
	// a body made only of stripped markup counts as empty
	if strings.TrimSpace(policy.Sanitize(f.Body)) == "" {
		errs["body"] = p.Sprintf(i18n.ErrRequired)
	}
	for _, tag := range f.Tags {
		if countRunes(tag) > maxTagLen {
			errs["tags"] = p.Sprintf(i18n.ErrTagTooLong, tag, maxTagLen)
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// scheduleForm is the change date form.
type scheduleForm struct {
	PubDate string
}

// parsePubDate reads a datetime-local value in loc.
func parsePubDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateInputLayout, strings.TrimSpace(value), loc)
}

type loginForm struct {
	Login string
}

type registerForm struct {
	Username string
	Email    string
}
