package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

// rss serves the most recent published posts, newest first.
func (h *Handler) rss(c *gin.Context) {
	now := h.now()
	posts, err := h.posts.Recent(c.Request.Context(), now, h.cfg.Blog.FeedSize)
	if err != nil {
		h.Render500(c, err)
		return
	}

	site := strings.TrimRight(h.cfg.Blog.SiteURL, "/")
	feed := &feeds.Feed{
		Title:       h.cfg.Blog.FeedTitle,
		Link:        &feeds.Link{Href: site + "/"},
		Description: h.cfg.Blog.FeedDescription,
		Created:     now,
	}
	for i := range posts {
		post := &posts[i]
		link := site + postURL(post)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       post.Title,
			Link:        &feeds.Link{Href: link},
			Description: post.Body,
			Created:     *post.PubDate,
		})
	}
	if len(posts) > 0 {
		feed.Updated = *posts[0].PubDate
	}

	body, err := feed.ToRss()
	if err != nil {
		h.Render500(c, fmt.Errorf("failed to render feed: %w", err))
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(body))
}
