package middleware

import (
	"net/http"
	"strings"
)

// assetHosts - внешние источники, с которых шаблоны загружают CSS.
var assetHosts = []string{"https://cdn.jsdelivr.net"}

// contentSecurityPolicy собирает CSP: всё с собственного origin, стили и шрифты также с hosts.
func contentSecurityPolicy(hosts []string) string {
	external := strings.Join(hosts, " ")
	directives := []string{
		"default-src 'self'",
		"style-src 'self' " + external,
		"font-src 'self' " + external,
		// тело поста может ссылаться на внешние картинки
		"img-src 'self' data: https:",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

// SecureHeaders добавляет защитные HTTP-заголовки. Если behindTLS установлен,
// HSTS отправляется всегда: TLS завершается на прокси и r.TLS пуст.
func SecureHeaders(behindTLS bool) func(http.Handler) http.Handler {
	csp := contentSecurityPolicy(assetHosts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if behindTLS || r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains") // 1 год
			}
			next.ServeHTTP(w, r)
		})
	}
}
