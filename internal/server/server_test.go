package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"

	"github.com/g-fabiani/blog/config"
	"github.com/g-fabiani/blog/internal/database"
	"github.com/g-fabiani/blog/internal/middleware"
)

func TestApplyMiddlewareOrder(t *testing.T) {
	c := qt.New(t)

	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := applyMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	c.Assert(order, qt.DeepEquals, []string{"first", "second", "handler"})
}

func newTestHandler(c *qt.C) http.Handler {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(c.TempDir(), "blog.db") + "?_foreign_keys=on"
	db, err := database.Open(cfg)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { database.Close(db) })
	c.Assert(database.Migrate(db), qt.IsNil)

	h, err := NewHandler(cfg, db, middleware.NewRateLimiter(middleware.DefaultMaxRequests, time.Minute))
	c.Assert(err, qt.IsNil)
	return h
}

func TestNewHandler(t *testing.T) {
	c := qt.New(t)
	h := newTestHandler(c)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{path: "/", status: http.StatusOK, contentType: "text/html; charset=utf-8"},
		{path: "/static/css/blog.css", status: http.StatusOK, contentType: "text/css; charset=utf-8"},
		{path: "/feed/rss", status: http.StatusOK, contentType: "application/rss+xml; charset=utf-8"},
		{path: "/no/such/page", status: http.StatusNotFound, contentType: "text/html; charset=utf-8"},
	}
	for _, tt := range tests {
		c.Run(tt.path, func(c *qt.C) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			c.Assert(rec.Code, qt.Equals, tt.status)
			c.Assert(rec.Header().Get("Content-Type"), qt.Equals, tt.contentType)
			c.Assert(rec.Header().Get("X-Frame-Options"), qt.Equals, "DENY")
		})
	}
}

var csrfField = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

func TestCSRFProtection(t *testing.T) {
	c := qt.New(t)
	h := newTestHandler(c)

	post := func(path string, form url.Values, cookies []*http.Cookie) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "192.0.2.1:1234"
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	c.Assert(post("/logout", url.Values{}, nil), qt.Equals, http.StatusForbidden)
	c.Assert(post("/login", url.Values{"login": {"nobody"}, "password": {"secret123"}}, nil), qt.Equals, http.StatusForbidden)

	// the login page hands out the token and its cookie
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	m := csrfField.FindStringSubmatch(rec.Body.String())
	c.Assert(m, qt.HasLen, 2)
	cookies := rec.Result().Cookies()

	form := url.Values{"login": {"nobody"}, "password": {"secret123"}, "gorilla.csrf.Token": {m[1]}}
	c.Assert(post("/login", form, cookies), qt.Equals, http.StatusUnauthorized)

	form.Set("gorilla.csrf.Token", "forged")
	c.Assert(post("/login", form, cookies), qt.Equals, http.StatusForbidden)
}
