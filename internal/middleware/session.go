package middleware

import (
	"context"
	"net/http"
	"strings"

	"stock-count/internal/auth"
	"stock-count/internal/session"
)

type contextKey string

const StateKey contextKey = "session_state"

// SessionMiddleware binds every request to the caller's session.State
type SessionMiddleware struct {
	jwtManager *auth.JWTManager
	store      *session.Store
	cookieName string
	secure     bool
}

func NewSessionMiddleware(jwtManager *auth.JWTManager, store *session.Store, cookieName string, secure bool) *SessionMiddleware {
	return &SessionMiddleware{
		jwtManager: jwtManager,
		store:      store,
		cookieName: cookieName,
		secure:     secure,
	}
}

// Attach resolves the session from the cookie or a Bearer token, starting a
// new one when neither names a live session. The state stays locked until
// the handler returns.
func (m *SessionMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := m.resolve(r)
		if !ok {
			st = m.store.Create()
			token, err := m.jwtManager.GenerateToken(st.ID)
			if err != nil {
				http.Error(w, "Failed to start session", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(m.jwtManager.TTL().Seconds()),
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set("X-Session-Token", token)
		}

		st.Lock()
		defer st.Unlock()

		ctx := context.WithValue(r.Context(), StateKey, st)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Clear expires the session cookie
func (m *SessionMiddleware) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionMiddleware) resolve(r *http.Request) (*session.State, bool) {
	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie(m.cookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return nil, false
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, false
	}
	return m.store.Get(claims.SessionID)
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(r *http.Request) string {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// GetStateFromContext extracts the session state from request context
func GetStateFromContext(ctx context.Context) (*session.State, bool) {
	st, ok := ctx.Value(StateKey).(*session.State)
	return st, ok
}
