package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/g-fabiani/blog/internal/database"
	"github.com/g-fabiani/blog/internal/flash"
	"github.com/g-fabiani/blog/internal/i18n"
	"github.com/g-fabiani/blog/internal/models"
)

// Submit actions of the create form.
const (
	actionPublish = "publish"
	actionSetDate = "set_date"
)

// list shows every post to authenticated users and published posts to
// everyone else, drafts first then newest first.
func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.now()
	page := pageNumber(c)
	size := h.cfg.Blog.PageSize

	posts, total, err := h.posts.List(ctx, database.ListOptions{
		IncludeUnpublished: currentUser(c) != nil,
		Now:                now,
		Limit:              size,
		Offset:             (page - 1) * size,
	})
	if err != nil {
		h.Render500(c, err)
		return
	}
	pages := totalPages(total, size)
	if page > pages {
		c.Redirect(http.StatusFound, fmt.Sprintf("/?page=%d", pages))
		return
	}

	// Only tags used by at least one published post
	tags, err := h.posts.PublishedTags(ctx, now)
	if err != nil {
		h.Render500(c, err)
		return
	}

	h.renderTemplate(c, http.StatusOK, "post_list.html", &TemplateData{
		Posts: posts,
		Tags:  tags,
		Pages: Pagination{Current: page, Total: pages},
	})
}

// listByTag shows the published posts of a tag, even to authenticated users.
func (h *Handler) listByTag(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := paramID(c)
	if !ok {
		h.Render404(c)
		return
	}
	tag, err := h.posts.Tag(ctx, id)
	if err != nil {
		h.renderStoreError(c, err)
		return
	}

	page := pageNumber(c)
	size := h.cfg.Blog.PageSize
	posts, total, err := h.posts.ListByTag(ctx, tag.ID, h.now(), size, (page-1)*size)
	if err != nil {
		h.Render500(c, err)
		return
	}
	pages := totalPages(total, size)
	if page > pages {
		c.Redirect(http.StatusFound, fmt.Sprintf("/tag/%d?page=%d", tag.ID, pages))
		return
	}

	h.renderTemplate(c, http.StatusOK, "post_list_by_tag.html", &TemplateData{
		Title: tag.Name,
		Posts: posts,
		Tag:   tag,
		Pages: Pagination{Current: page, Total: pages},
	})
}

func (h *Handler) detail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.Render404(c)
		return
	}
	post, err := h.posts.GetVisible(c.Request.Context(), id, currentUser(c) != nil, h.now())
	if err != nil {
		h.renderStoreError(c, err)
		return
	}
	h.renderTemplate(c, http.StatusOK, "post_detail.html", &TemplateData{
		Title: post.Title,
		Post:  post,
	})
}

// renderPostForm shows the create or update form with every known tag.
func (h *Handler) renderPostForm(c *gin.Context, status int, page string, post *models.Post, form postForm, errs map[string]string) {
	tags, err := h.posts.AllTags(c.Request.Context())
	if err != nil {
		h.Render500(c, err)
		return
	}
	data := &TemplateData{
		Post:     post,
		Tags:     tags,
		PostTags: form.Tags,
		Form:     form,
		Errors:   errs,
	}
	if post != nil {
		data.Title = post.Title
	} else {
		data.Title = h.printer.Sprintf("New post")
	}
	h.renderTemplate(c, status, page, data)
}

func (h *Handler) createForm(c *gin.Context) {
	h.renderPostForm(c, http.StatusOK, "post_create.html", nil, postForm{}, nil)
}

// create saves a new post as a draft, published now, or a draft waiting for
// a publication date, depending on the submit button.
func (h *Handler) create(c *gin.Context) {
	user := currentUser(c)
	form := parsePostForm(c)
	if errs := form.validate(h.printer, h.policy); errs != nil {
		h.renderPostForm(c, http.StatusBadRequest, "post_create.html", nil, form, errs)
		return
	}

	post := &models.Post{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Body:     h.policy.Sanitize(form.Body),
	}
	// Set current user to author, if so desired
	if form.Author {
		post.AuthorID = &user.ID
	}

	action := c.PostForm("submit")
	if action == actionPublish {
		now := h.now().UTC()
		post.PubDate = &now
	}

	if err := h.posts.Create(c.Request.Context(), post, form.Tags); err != nil {
		h.Render500(c, err)
		return
	}
	slog.Info("post created", "id", post.ID, "user", user.Username, "action", action)

	switch action {
	case actionPublish:
		h.addMessage(c, flash.Success, i18n.MsgPublished, post.Title)
		c.Redirect(http.StatusSeeOther, postURL(post))
	case actionSetDate:
		h.addMessage(c, flash.Info, i18n.MsgScheduleCancel)
		c.Redirect(http.StatusSeeOther, postURL(post)+"/change_date")
	default:
		h.addMessage(c, flash.Success, i18n.MsgSavedDraft, post.Title)
		c.Redirect(http.StatusSeeOther, postURL(post))
	}
}

func (h *Handler) updateForm(c *gin.Context) {
	post := loadedPost(c)
	h.renderPostForm(c, http.StatusOK, "post_update.html", post, formFromPost(post), nil)
}

// update replaces the fields and the tags of a post. The publication date is
// left alone.
func (h *Handler) update(c *gin.Context) {
	post := loadedPost(c)
	form := parsePostForm(c)
	if errs := form.validate(h.printer, h.policy); errs != nil {
		h.renderPostForm(c, http.StatusBadRequest, "post_update.html", post, form, errs)
		return
	}

	post.Title = form.Title
	post.Subtitle = form.Subtitle
	post.Body = h.policy.Sanitize(form.Body)
	if err := h.posts.Update(c.Request.Context(), post, form.Tags); err != nil {
		h.Render500(c, err)
		return
	}
	slog.Info("post updated", "id", post.ID, "user", currentUser(c).Username)

	h.addMessage(c, flash.Success, i18n.MsgUpdated, post.Title)
	c.Redirect(http.StatusSeeOther, postURL(post))
}

func (h *Handler) deleteForm(c *gin.Context) {
	post := loadedPost(c)
	h.renderTemplate(c, http.StatusOK, "post_delete.html", &TemplateData{
		Title: post.Title,
		Post:  post,
	})
}

func (h *Handler) deletePost(c *gin.Context) {
	post := loadedPost(c)
	if err := h.posts.Delete(c.Request.Context(), post); err != nil {
		h.renderStoreError(c, err)
		return
	}
	slog.Info("post deleted", "id", post.ID, "user", currentUser(c).Username)

	// deletion is reported at error level
	h.addMessage(c, flash.Error, i18n.MsgDeleted, post.Title)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) publish(c *gin.Context) {
	post := loadedPost(c)
	if err := h.posts.SetPubDate(c.Request.Context(), post, h.now()); err != nil {
		h.Render500(c, err)
		return
	}
	slog.Info("post published", "id", post.ID, "user", currentUser(c).Username)

	h.addMessage(c, flash.Success, i18n.MsgPublished, post.Title)
	c.Redirect(http.StatusSeeOther, postURL(post))
}

// renderSchedule shows the change date form; the earliest date offered is
// the current minute in the blog time zone.
func (h *Handler) renderSchedule(c *gin.Context, status int, form scheduleForm, errs map[string]string) {
	post := loadedPost(c)
	current := h.now().In(h.loc).Format(dateInputLayout)
	if form.PubDate == "" {
		form.PubDate = current
	}
	h.renderTemplate(c, status, "post_change_date.html", &TemplateData{
		Title:   post.Title,
		Post:    post,
		Form:    form,
		Errors:  errs,
		MinDate: current,
	})
}

func (h *Handler) changeDateForm(c *gin.Context) {
	h.renderSchedule(c, http.StatusOK, scheduleForm{}, nil)
}

func (h *Handler) changeDate(c *gin.Context) {
	post := loadedPost(c)
	form := scheduleForm{PubDate: c.PostForm("pub_date")}

	if form.PubDate == "" {
		h.renderSchedule(c, http.StatusBadRequest, form, map[string]string{"pub_date": h.printer.Sprintf(i18n.ErrRequired)})
		return
	}
	at, err := parsePubDate(form.PubDate, h.loc)
	if err != nil {
		h.renderSchedule(c, http.StatusBadRequest, form, map[string]string{"pub_date": h.printer.Sprintf(i18n.ErrInvalidDate)})
		return
	}

	if err := h.posts.SetPubDate(c.Request.Context(), post, at); err != nil {
		h.Render500(c, err)
		return
	}
	slog.Info("post scheduled", "id", post.ID, "user", currentUser(c).Username, "pub_date", at)

	h.addMessage(c, flash.Success, i18n.MsgScheduled, post.Title)
	c.Redirect(http.StatusSeeOther, postURL(post))
}
