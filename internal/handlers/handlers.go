package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/message"

	"github.com/g-fabiani/blog/config"
	"github.com/g-fabiani/blog/internal/auth"
	"github.com/g-fabiani/blog/internal/database"
	"github.com/g-fabiani/blog/internal/flash"
	"github.com/g-fabiani/blog/internal/i18n"
	"github.com/g-fabiani/blog/internal/models"
	"github.com/g-fabiani/blog/internal/web"
)

// pages are parsed together with layout.html, one template set per page.
var pages = []string{
	"post_list.html",
	"post_list_by_tag.html",
	"post_detail.html",
	"post_create.html",
	"post_update.html",
	"post_delete.html",
	"post_change_date.html",
	"login.html",
	"register.html",
	"error.html",
}

// Handler serves the blog pages.
type Handler struct {
	cfg     *config.Config
	posts   *database.PostStore
	auth    *auth.Service
	flash   *flash.Store
	printer *message.Printer
	policy  *bluemonday.Policy
	loc     *time.Location
	now     func() time.Time
	pages   map[string]*template.Template
}

type Option func(*Handler)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func New(cfg *config.Config, posts *database.PostStore, authSvc *auth.Service, opts ...Option) (*Handler, error) {
	h := &Handler{
		cfg:     cfg,
		posts:   posts,
		auth:    authSvc,
		flash:   flash.NewStore(cfg.Blog.SecretKey, cfg.Server.CookieSecure),
		printer: i18n.NewPrinter(cfg.Blog.Language),
		policy:  bluemonday.UGCPolicy(),
		loc:     cfg.Location(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	base, err := template.New("layout.html").Funcs(h.funcs()).ParseFS(web.Templates, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing layout: %w", err)
	}
	h.pages = make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(web.Templates, page); err != nil {
			return nil, fmt.Errorf("error parsing template %s: %w", page, err)
		}
		h.pages[page] = t
	}
	return h, nil
}

// TemplateData holds data passed to HTML templates.
type TemplateData struct {
	Title     string
	SiteTitle string
	Lang      string
	User      *models.User
	Messages  []flash.Message
	Now       time.Time
	Error     string
	CSRFField template.HTML

	Posts    []models.Post
	Post     *models.Post
	Tag      *models.Tag
	Tags     []models.Tag
	PostTags []string
	Pages    Pagination

	Form    any
	Errors  map[string]string
	Next    string
	MinDate string
}

// Pagination describes the current page of a listing, both 1-based.
type Pagination struct {
	Current int
	Total   int
}

// postCard is what the post_card and post_meta templates expect.
type postCard struct {
	Post *models.Post
	Now  time.Time
}

func (h *Handler) funcs() template.FuncMap {
	return template.FuncMap{
		"t": func(key string, args ...any) string {
			return h.printer.Sprintf(key, args...)
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.In(h.loc).Format("02/01/2006 15:04")
		},
		// bodies are sanitized before they are stored
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"alertClass": func(level flash.Level) string {
			if level == flash.Error {
				return "danger"
			}
			return string(level)
		},
		"card": func(post models.Post, data *TemplateData) postCard {
			return postCard{Post: &post, Now: data.Now}
		},
		"iterate": func(count int) []int {
			items := make([]int, count)
			for i := range items {
				items[i] = i
			}
			return items
		},
		"dec": func(a int) int { return a - 1 },
		"inc": func(a int) int { return a + 1 },
	}
}

func currentUser(c *gin.Context) *models.User {
	return auth.GetUserFromContext(c.Request.Context())
}

// renderTemplate выполняет шаблон в буфер, чтобы не отправлять частичный вывод при ошибке.
func (h *Handler) renderTemplate(c *gin.Context, status int, page string, data *TemplateData) {
	t, ok := h.pages[page]
	if !ok {
		slog.Error("unknown template", "template", page)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	data.SiteTitle = h.cfg.Blog.Title
	data.Lang = h.cfg.Blog.Language
	data.User = currentUser(c)
	data.Now = h.now()
	data.Messages = h.flash.Pop(c.Writer, c.Request)
	data.CSRFField = csrf.TemplateField(c.Request)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("error rendering template", "template", page, "error", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// addMessage queues a flash message translated in the blog language.
func (h *Handler) addMessage(c *gin.Context, level flash.Level, key string, args ...any) {
	h.flash.Add(c.Writer, c.Request, level, h.printer.Sprintf(key, args...))
}

func (h *Handler) Render404(c *gin.Context) {
	h.renderTemplate(c, http.StatusNotFound, "error.html", &TemplateData{
		Title: h.printer.Sprintf("Page not found"),
	})
}

func (h *Handler) Render500(c *gin.Context, err error) {
	slog.Error("internal server error", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	h.renderTemplate(c, http.StatusInternalServerError, "error.html", &TemplateData{
		Title: h.printer.Sprintf("Something went wrong"),
	})
}

// renderStoreError maps not-found errors to 404, everything else to 500.
func (h *Handler) renderStoreError(c *gin.Context, err error) {
	if errors.Is(err, database.ErrPostNotFound) || errors.Is(err, database.ErrTagNotFound) {
		h.Render404(c)
		return
	}
	h.Render500(c, err)
}

// paramID parses the :id route parameter.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pageNumber reads ?page=N, defaulting to the first page.
func pageNumber(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func totalPages(total int64, size int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

func postURL(post *models.Post) string {
	return fmt.Sprintf("/post/%d", post.ID)
}
