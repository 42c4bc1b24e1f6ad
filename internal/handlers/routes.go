package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/g-fabiani/blog/internal/i18n"
)

// Routes registers every page of the blog on r.
func (h *Handler) Routes(r gin.IRoutes) {
	r.GET("/", h.list)
	r.GET("/tag/:id", h.listByTag)
	r.GET("/post/:id", h.detail)
	r.GET("/feed/rss", h.rss)

	loggedIn := h.guarded("", h.requiresAuth)
	r.GET("/post/create", loggedIn, h.createForm)
	r.POST("/post/create", loggedIn, h.create)

	edit := h.guarded(i18n.VerbEdit, h.requiresAuth, h.requiresPost, h.requiresOwnership)
	r.GET("/post/:id/update", edit, h.updateForm)
	r.POST("/post/:id/update", edit, h.update)

	del := h.guarded(i18n.VerbDelete, h.requiresAuth, h.requiresPost, h.requiresOwnership)
	r.GET("/post/:id/delete", del, h.deleteForm)
	r.POST("/post/:id/delete", del, h.deletePost)

	publish := h.guarded(i18n.VerbPublish, h.requiresAuth, h.requiresPost, h.requiresOwnership, h.requiresUnpublished)
	r.POST("/post/:id/publish", publish, h.publish)

	schedule := h.guarded("", h.requiresAuth, h.requiresPost, h.requiresOwnership, h.requiresUnpublished)
	r.GET("/post/:id/change_date", schedule, h.changeDateForm)
	r.POST("/post/:id/change_date", schedule, h.changeDate)

	r.GET("/login", h.loginPage)
	r.POST("/login", h.login)
	r.GET("/register", h.registerPage)
	r.POST("/register", h.register)
	r.POST("/logout", h.logout)
}

// NotFound renders the 404 page for unknown routes.
func (h *Handler) NotFound(c *gin.Context) {
	h.Render404(c)
}
