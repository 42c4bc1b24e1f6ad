package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/g-fabiani/blog/internal/flash"
	"github.com/g-fabiani/blog/internal/i18n"
	"github.com/g-fabiani/blog/internal/middleware"
	"github.com/g-fabiani/blog/internal/models"
)

const postKey = "post"

// guard checks one precondition of a request. When it fails it writes the
// response itself and returns false.
type guard func(c *gin.Context, verb string) bool

// guarded runs guards in order and stops at the first failure. verb names the
// attempted operation in permission errors, empty means a generic message.
func (h *Handler) guarded(verb string, guards ...guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, g := range guards {
			if !g(c, verb) {
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// requiresAuth перенаправляет на страницу логина, если пользователь не аутентифицирован.
// Для AJAX запросов возвращает JSON ошибку вместо редиректа.
func (h *Handler) requiresAuth(c *gin.Context, _ string) bool {
	if currentUser(c) != nil {
		return true
	}
	if middleware.IsAJAX(c.Request) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return false
	}
	// only pages can be returned to after login
	next := "/"
	if c.Request.Method == http.MethodGet {
		next = c.Request.URL.RequestURI()
	}
	h.addMessage(c, flash.Warning, i18n.MsgLoginRequired)
	c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(next))
	return false
}

// requiresPost loads the post named by :id, whatever its state.
func (h *Handler) requiresPost(c *gin.Context, _ string) bool {
	id, ok := paramID(c)
	if !ok {
		h.Render404(c)
		return false
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.renderStoreError(c, err)
		return false
	}
	c.Set(postKey, post)
	return true
}

func (h *Handler) requiresOwnership(c *gin.Context, verb string) bool {
	post := loadedPost(c)
	if post.CanBeModifiedBy(currentUser(c)) {
		return true
	}
	h.deny(c, post, verb)
	return false
}

// requiresUnpublished rejects posts already visible to readers.
func (h *Handler) requiresUnpublished(c *gin.Context, verb string) bool {
	post := loadedPost(c)
	if !post.IsPublished(h.now()) {
		return true
	}
	h.deny(c, post, verb)
	return false
}

// deny sends the user back to the post with a permission error.
func (h *Handler) deny(c *gin.Context, post *models.Post, verb string) {
	if verb != "" {
		h.addMessage(c, flash.Error, i18n.MsgNoPermissionVerb, h.printer.Sprintf(verb))
	} else {
		h.addMessage(c, flash.Error, i18n.MsgNoPermission)
	}
	c.Redirect(http.StatusFound, postURL(post))
}

func loadedPost(c *gin.Context) *models.Post {
	return c.MustGet(postKey).(*models.Post)
}
