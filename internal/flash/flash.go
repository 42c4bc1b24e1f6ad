// Package flash carries one-shot messages across a redirect in a signed cookie.
package flash

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const CookieName = "flash"

// maxAge bounds how long a queued message stays readable.
const maxAge = time.Hour

// Level is the severity of a message, used as CSS class by the templates.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

var ErrInvalidCookie = errors.New("flash: invalid cookie")

// Store reads and writes flash cookies signed with a secret key.
type Store struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewStore(secretKey string, secure bool) *Store {
	codec := securecookie.New([]byte(secretKey), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(maxAge / time.Second))
	return &Store{codec: codec, secure: secure}
}

// Add queues a message for the next page rendered for this client. Messages
// not consumed yet are kept.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, level Level, text string) {
	var messages []Message
	if c, err := r.Cookie(CookieName); err == nil {
		// a tampered or expired cookie is dropped
		messages, _ = s.Decode(c.Value)
	}
	messages = append(messages, Message{Level: level, Text: text})

	value, err := s.Encode(messages)
	if err != nil {
		return
	}
	s.setCookie(w, value, 0)
}

// Pop returns the pending messages and clears the cookie.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	s.setCookie(w, "", -1)
	messages, err := s.Decode(c.Value)
	if err != nil {
		return nil
	}
	return messages
}

// Encode signs messages into a cookie value.
func (s *Store) Encode(messages []Message) (string, error) {
	value, err := s.codec.Encode(CookieName, messages)
	if err != nil {
		return "", fmt.Errorf("flash: encode: %w", err)
	}
	return value, nil
}

// Decode verifies and parses a value produced by Encode.
func (s *Store) Decode(value string) ([]Message, error) {
	var messages []Message
	if err := s.codec.Decode(CookieName, value, &messages); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}
	return messages, nil
}

func (s *Store) setCookie(w http.ResponseWriter, value string, age int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   age,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
