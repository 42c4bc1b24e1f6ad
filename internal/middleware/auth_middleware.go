package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/g-fabiani/blog/internal/auth"
)

// AuthMiddleware проверяет сессию пользователя и добавляет объект User в контекст запроса.
func AuthMiddleware(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionCookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil {
				// Куки нет, пользователь не аутентифицирован.
				// Просто продолжаем, User будет nil в контексте.
				next.ServeHTTP(w, r)
				return
			}

			user, err := svc.GetUserBySession(r.Context(), sessionCookie.Value)
			if err != nil {
				// Сессия недействительна или истекла. Очищаем куки.
				svc.ClearSessionCookie(w)
				slog.Debug("invalid or expired session", "error", err)
				next.ServeHTTP(w, r) // Продолжаем без пользователя в контексте
				return
			}

			// Если сессия валидна, добавляем пользователя в контекст запроса
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// IsAJAX сообщает, ждет ли клиент JSON вместо HTML-страницы.
func IsAJAX(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
