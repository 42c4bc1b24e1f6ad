package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/g-fabiani/blog/internal/database"
	"github.com/g-fabiani/blog/internal/models"
)

// SessionCookieName - имя cookie, в которой хранится UUID сессии.
const SessionCookieName = "session_token"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmailExists     = errors.New("email already exists")
	ErrUsernameExists  = errors.New("username already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found or expired")
)

// Regex patterns for validation
var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[\p{L}0-9_]{3,20}$`) // Unicode letters, numbers, underscore
	passwordRegex = regexp.MustCompile(`^.{6,32}$`)           // 6-32 characters
)

// ValidateUserCredentials проверяет входные данные при регистрации
func ValidateUserCredentials(email, username, password string) error {
	if !emailRegex.MatchString(email) || len(email) < 5 || len(email) > 50 {
		return fmt.Errorf("%w: invalid email format or length (5-50 characters)", ErrInvalidInput)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: invalid username format or length (3-20 characters, letters, numbers, underscore only)", ErrInvalidInput)
	}
	if !passwordRegex.MatchString(password) {
		return fmt.Errorf("%w: invalid password format or length (6-32 characters)", ErrInvalidInput)
	}
	return nil
}

// Service управляет пользователями и их сессиями.
type Service struct {
	db           *gorm.DB
	expiration   time.Duration
	cookieSecure bool
	now          func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithCookieSecure marks session cookies as HTTPS only.
func WithCookieSecure(secure bool) Option {
	return func(s *Service) { s.cookieSecure = secure }
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, expiration time.Duration, opts ...Option) *Service {
	s := &Service{db: db, expiration: expiration, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, email, username, password string) (*models.User, error) {
	if err := ValidateUserCredentials(email, username, password); err != nil {
		return nil, err
	}

	hashedPassword, err := database.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to hash password: %w", err)
	}

	db := s.db.WithContext(ctx)

	// Проверяем занятость email и имени пользователя (имя без учета регистра)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("auth: failed to check existing email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}
	if err := db.Model(&models.User{}).Where("LOWER(username) = ?", strings.ToLower(username)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("auth: failed to check existing username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameExists
	}

	user := &models.User{Email: email, Username: username, Password: hashedPassword}
	if err := db.Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// параллельная регистрация успела раньше
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("auth: failed to insert user: %w", err)
	}
	return user, nil
}

// LoginUser аутентифицирует пользователя и создает новую сессию.
func (s *Service) LoginUser(ctx context.Context, login, password string) (*models.User, *models.Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR LOWER(username) = ?", login, strings.ToLower(login)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("auth: failed to query user: %w", err)
	}

	// Проверяем пароль
	if err := database.CheckPasswordHash(user.Password, password); err != nil {
		// Логируем ошибку для отладки (не логируем сам пароль)
		slog.Debug("password check failed", "user", user.Username, "id", user.ID, "error", err)
		return nil, nil, ErrInvalidPassword
	}

	session, err := s.CreateSession(ctx, &user)
	if err != nil {
		return nil, nil, err
	}
	return &user, session, nil
}

// CreateSession заменяет старые сессии пользователя новой.
func (s *Service) CreateSession(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		UserID:  user.ID,
		UUID:    uuid.New().String(),
		Expires: s.now().Add(s.expiration).UTC(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Удаляем старые сессии для этого пользователя
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("auth: failed to delete old sessions: %w", err)
		}
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("auth: failed to create new session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// LogoutUser удаляет сессию из базы данных.
func (s *Service) LogoutUser(ctx context.Context, sessionUUID string) error {
	result := s.db.WithContext(ctx).Where("uuid = ?", sessionUUID).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("auth: failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetUserBySession проверяет сессию и возвращает пользователя.
func (s *Service) GetUserBySession(ctx context.Context, sessionUUID string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var session models.Session
	if err := db.Where("uuid = ?", sessionUUID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("auth: failed to query session: %w", err)
	}

	if s.now().After(session.Expires) {
		// Сессия истекла, удаляем ее из БД
		if err := db.Delete(&session).Error; err != nil {
			slog.Debug("failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, ErrSessionNotFound
	}

	var user models.User
	if err := db.First(&user, session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound // Пользователь сессии не найден, возможно, удален
		}
		return nil, fmt.Errorf("auth: failed to query user by session: %w", err)
	}
	user.Password = ""
	return &user, nil
}

// SetSessionCookie устанавливает HTTP-cookie для сессии.
func (s *Service) SetSessionCookie(w http.ResponseWriter, session *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.UUID,
		Path:     "/",
		Expires:  session.Expires,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie очищает HTTP-cookie сессии.
func (s *Service) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // Удаляет cookie немедленно
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ContextKey для хранения User в контексте запроса
type contextKey string

const UserContextKey contextKey = "user"

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUserFromContext извлекает пользователя из контекста запроса.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
