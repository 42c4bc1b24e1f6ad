package flash_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/g-fabiani/blog/internal/flash"
)

const key = "test-key"

func TestAddThenPop(t *testing.T) {
	c := qt.New(t)
	store := flash.NewStore(key, false)

	rec := httptest.NewRecorder()
	store.Add(rec, httptest.NewRequest(http.MethodPost, "/", nil), flash.Success, "saved")
	cookies := rec.Result().Cookies()
	c.Assert(cookies, qt.HasLen, 1)

	// the next request carries the cookie back
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	rec = httptest.NewRecorder()
	store.Add(rec, req, flash.Error, "and failed")
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	rec = httptest.NewRecorder()
	messages := store.Pop(rec, req)
	c.Assert(messages, qt.DeepEquals, []flash.Message{
		{Level: flash.Success, Text: "saved"},
		{Level: flash.Error, Text: "and failed"},
	})
	cleared := rec.Result().Cookies()
	c.Assert(cleared, qt.HasLen, 1)
	c.Assert(cleared[0].MaxAge, qt.Equals, -1)
}

func TestPopWithoutCookie(t *testing.T) {
	c := qt.New(t)
	store := flash.NewStore(key, false)

	rec := httptest.NewRecorder()
	c.Assert(store.Pop(rec, httptest.NewRequest(http.MethodGet, "/", nil)), qt.IsNil)
	c.Assert(rec.Result().Cookies(), qt.HasLen, 0)
}

func TestDecodeRejectsTampering(t *testing.T) {
	c := qt.New(t)
	store := flash.NewStore(key, false)

	value, err := store.Encode([]flash.Message{{Level: flash.Info, Text: "hi"}})
	c.Assert(err, qt.IsNil)

	messages, err := store.Decode(value)
	c.Assert(err, qt.IsNil)
	c.Assert(messages, qt.DeepEquals, []flash.Message{{Level: flash.Info, Text: "hi"}})

	_, err = flash.NewStore("other-key", false).Decode(value)
	c.Assert(err, qt.ErrorIs, flash.ErrInvalidCookie)

	_, err = store.Decode("x" + value)
	c.Assert(err, qt.ErrorIs, flash.ErrInvalidCookie)

	_, err = store.Decode("no-signature")
	c.Assert(err, qt.ErrorIs, flash.ErrInvalidCookie)
}

func TestAddDropsForgedCookie(t *testing.T) {
	c := qt.New(t)
	store := flash.NewStore(key, false)

	forged, err := flash.NewStore("attacker-key", false).Encode([]flash.Message{{Level: flash.Success, Text: "forged"}})
	c.Assert(err, qt.IsNil)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: flash.CookieName, Value: forged})
	rec := httptest.NewRecorder()
	store.Add(rec, req, flash.Error, "real")

	messages, err := store.Decode(rec.Result().Cookies()[0].Value)
	c.Assert(err, qt.IsNil)
	c.Assert(messages, qt.DeepEquals, []flash.Message{{Level: flash.Error, Text: "real"}})
}
