package i18n_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/g-fabiani/blog/internal/i18n"
)

func TestNewPrinter(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{lang: "en", want: "You published the post “Hello”"},
		{lang: "it", want: "Hai pubblicato il post “Hello”"},
		{lang: "it-IT", want: "Hai pubblicato il post “Hello”"},
		{lang: "fr", want: "You published the post “Hello”"},
		{lang: "", want: "You published the post “Hello”"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			c := qt.New(t)
			p := i18n.NewPrinter(tt.lang)
			c.Assert(p.Sprintf(i18n.MsgPublished, "Hello"), qt.Equals, tt.want)
		})
	}
}

func TestPermissionVerb(t *testing.T) {
	c := qt.New(t)

	p := i18n.NewPrinter("it")
	msg := p.Sprintf(i18n.MsgNoPermissionVerb, p.Sprintf(i18n.VerbDelete))
	c.Assert(msg, qt.Equals, "Non hai le autorizzazioni necessarie per eliminare questo post")

	p = i18n.NewPrinter("en")
	msg = p.Sprintf(i18n.MsgNoPermissionVerb, p.Sprintf(i18n.VerbEdit))
	c.Assert(msg, qt.Equals, "You don't have permission to edit this post")
}
