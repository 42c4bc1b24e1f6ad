package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultMaxRequests = 20          // Максимальное количество попыток за окно
	DefaultWindow      = time.Minute // За это время восстанавливаются все попытки
)

// clientState хранит token bucket клиента и время его последнего запроса.
type clientState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает попытки входа и регистрации с одного IP-адреса:
// не больше maxRequests подряд, затем одна попытка каждые window/maxRequests.
type RateLimiter struct {
	every rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex // Мьютекс для доступа к map clients
	clients map[string]*clientState
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		every:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		idle:    window,
		clients: make(map[string]*clientState),
	}
}

// allow расходует токен клиента ip.
func (l *RateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	state, exists := l.clients[ip]
	if !exists {
		state = &clientState{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[ip] = state
	}
	state.lastSeen = time.Now()
	return state.limiter.Allow()
}

// limited сообщает, подпадает ли запрос под ограничение.
func limited(r *http.Request) bool {
	return r.Method == http.MethodPost && (r.URL.Path == "/login" || r.URL.Path == "/register")
}

// Middleware ограничивает количество POST /login и POST /register от одного IP-адреса.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limited(r) {
			next.ServeHTTP(w, r)
			return
		}

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			slog.Error("error splitting host port", "remote_addr", r.RemoteAddr, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if !l.allow(ip) {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			if IsAJAX(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error": "Too Many Requests",
				})
			} else {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Run периодически очищает map от старых записей, чтобы избежать утечек памяти.
// Возвращается при отмене ctx.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *RateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, state := range l.clients {
		// Удаляем, если не было активности в течение 2-х окон
		if time.Since(state.lastSeen) > 2*l.idle {
			delete(l.clients, ip)
		}
	}
}
