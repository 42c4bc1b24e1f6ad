package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/g-fabiani/blog/internal/auth"
	"github.com/g-fabiani/blog/internal/flash"
	"github.com/g-fabiani/blog/internal/i18n"
)

// safeNext keeps redirects after login on this site. Browsers drop tabs and
// newlines from URLs, so any control character rejects the value.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if strings.ContainsFunc(next, unicode.IsControl) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

// loginPage displays the login form.
func (h *Handler) loginPage(c *gin.Context) {
	next := safeNext(c.Query("next"))
	if currentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, next)
		return
	}
	h.renderTemplate(c, http.StatusOK, "login.html", &TemplateData{
		Title: h.printer.Sprintf("Log in"),
		Form:  loginForm{},
		Next:  next,
	})
}

// login processes the login form and returns the user where they were going.
func (h *Handler) login(c *gin.Context) {
	form := loginForm{Login: strings.TrimSpace(c.PostForm("login"))} // Can be email or username
	next := safeNext(c.PostForm("next"))

	user, session, err := h.auth.LoginUser(c.Request.Context(), form.Login, c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) && !errors.Is(err, auth.ErrInvalidPassword) {
			h.Render500(c, err)
			return
		}
		slog.Info("login failed", "login", form.Login, "error", err)
		h.renderTemplate(c, http.StatusUnauthorized, "login.html", &TemplateData{
			Title: h.printer.Sprintf("Log in"),
			Error: h.printer.Sprintf(i18n.ErrBadCredentials),
			Form:  form,
			Next:  next,
		})
		return
	}

	// Set the session cookie
	h.auth.SetSessionCookie(c.Writer, session)
	slog.Info("user logged in", "user", user.Username, "id", user.ID)
	h.addMessage(c, flash.Success, i18n.MsgLoggedIn, user.Username)
	c.Redirect(http.StatusSeeOther, next)
}

func (h *Handler) registerPage(c *gin.Context) {
	h.renderTemplate(c, http.StatusOK, "register.html", &TemplateData{
		Title: h.printer.Sprintf("Register"),
		Form:  registerForm{},
	})
}

// register creates an account; the new user logs in afterwards.
func (h *Handler) register(c *gin.Context) {
	form := registerForm{
		Username: strings.TrimSpace(c.PostForm("username")),
		Email:    strings.TrimSpace(c.PostForm("email")),
	}
	password := c.PostForm("password")

	var errMsg string
	if password != c.PostForm("confirm_password") {
		errMsg = h.printer.Sprintf(i18n.ErrPasswordsDiffer)
	} else if _, err := h.auth.RegisterUser(c.Request.Context(), form.Email, form.Username, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			errMsg = h.printer.Sprintf(i18n.ErrEmailTaken)
		case errors.Is(err, auth.ErrUsernameExists):
			errMsg = h.printer.Sprintf(i18n.ErrUsernameTaken)
		case errors.Is(err, auth.ErrInvalidInput):
			errMsg = h.printer.Sprintf(i18n.ErrInvalidAccount)
		default:
			h.Render500(c, err)
			return
		}
	}
	if errMsg != "" {
		h.renderTemplate(c, http.StatusBadRequest, "register.html", &TemplateData{
			Title: h.printer.Sprintf("Register"),
			Error: errMsg,
			Form:  form,
		})
		return
	}

	slog.Info("user registered", "user", form.Username)
	h.addMessage(c, flash.Success, i18n.MsgRegistered)
	c.Redirect(http.StatusSeeOther, "/login")
}

// logout logs out the user by deleting their session.
func (h *Handler) logout(c *gin.Context) {
	sessionCookie, err := c.Request.Cookie(auth.SessionCookieName)
	if err == nil { // If cookie exists, try to delete session from DB
		err = h.auth.LogoutUser(c.Request.Context(), sessionCookie.Value)
		if err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
			slog.Error("error deleting session", "error", err)
		}
	}

	// Always clear the cookie from the client
	h.auth.ClearSessionCookie(c.Writer)
	h.addMessage(c, flash.Info, i18n.MsgLoggedOut)
	c.Redirect(http.StatusSeeOther, "/")
}
