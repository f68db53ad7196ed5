// Package middleware содержит HTTP middleware панели продавца.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/repository"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	authCookieName = "session"
	authCookieTTL  = 30 * 24 * time.Hour
)

// SessionLoader загружает сессию панели по идентификатору.
type SessionLoader interface {
	Session(ctx context.Context, id uuid.UUID) (*model.Session, error)
}

// AuthMiddleware выполняет проверку аутентификации пользователя по подписанному cookie сессии.
type AuthMiddleware struct {
	secretKey []byte
	sessions  SessionLoader
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// Если ключ пуст, генерируется случайный: сессии не переживут перезапуск процесса.
func NewAuthMiddleware(secret string, sessions SessionLoader) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}

	return &AuthMiddleware{
		secretKey: key,
		sessions:  sessions,
	}
}

// Middleware проверяет cookie сессии и добавляет сессию в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		id, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		sess, err := a.sessions.Session(r.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, *sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetAuthCookie устанавливает cookie сессии с идентификатором id.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, id uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    a.sign(id.String()),
		Path:     "/",
		Expires:  time.Now().Add(authCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie удаляет cookie сессии.
func (a *AuthMiddleware) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthMiddleware) sign(value string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(value))
	return value + "." + hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (uuid.UUID, bool) {
	value, _, ok := strings.Cut(cookieValue, ".")
	if !ok {
		return uuid.Nil, false
	}

	if !hmac.Equal([]byte(cookieValue), []byte(a.sign(value))) {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SessionFromContext извлекает сессию из контекста запроса.
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(model.Session)
	return sess, ok
}

// WithSession добавляет сессию в контекст. Используется обработчиками вне защищённой группы маршрутов и в тестах.
func WithSession(ctx context.Context, sess model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}
