package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/g-fabiani/blog/config"
	"github.com/g-fabiani/blog/internal/auth"
	"github.com/g-fabiani/blog/internal/database"
	"github.com/g-fabiani/blog/internal/handlers"
	"github.com/g-fabiani/blog/internal/middleware"
	"github.com/g-fabiani/blog/internal/web"
)

const shutdownTimeout = 10 * time.Second

// applyMiddleware оборачивает h так, что первый middleware выполняется первым.
func applyMiddleware(h http.Handler, m ...func(http.Handler) http.Handler) http.Handler {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

// NewHandler собирает маршруты блога и глобальные middleware.
func NewHandler(cfg *config.Config, db *gorm.DB, limiter *middleware.RateLimiter, opts ...handlers.Option) (http.Handler, error) {
	authSvc := auth.NewService(db, cfg.Session.Expiration, auth.WithCookieSecure(cfg.Server.CookieSecure))
	h, err := handlers.New(cfg, database.NewPostStore(db), authSvc, opts...)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.StaticFS("/static", http.FS(web.Static))
	h.Routes(router)
	router.NoRoute(h.NotFound)

	// Применение глобальных middleware
	return applyMiddleware(router,
		middleware.LoggerMiddleware,
		middleware.SecureHeaders(cfg.Server.CookieSecure),
		limiter.Middleware,
		middleware.CSRFMiddleware(cfg.Blog.SecretKey, cfg.Server.CookieSecure),
		middleware.AuthMiddleware(authSvc),
	), nil
}

// Run serves the blog until ctx is cancelled, then shuts the server down
// gracefully.
func Run(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	limiter := middleware.NewRateLimiter(middleware.DefaultMaxRequests, middleware.DefaultWindow)
	handler, err := NewHandler(cfg, db, limiter)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "url", "http://localhost"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		limiter.Run(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
