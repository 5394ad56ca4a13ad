package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionPolicy configures the visitor session cookie.
type SessionPolicy struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeySessionID).(string)
	return v
}

// ContextWithSessionID is used by tests and internal callers that bypass the cookie.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}

// WithSession makes sure every request carries a visitor session id.
// A missing or malformed cookie gets a fresh id; the cookie is refreshed on
// every response so the session lives as long as the visitor keeps using it.
func WithSession(cfg SessionPolicy) Middleware {
	if cfg.CookieName == "" {
		cfg.CookieName = "appt_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
			}
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: sameSite(cfg.Secure),
			})
			next.ServeHTTP(w, r.WithContext(ContextWithSessionID(r.Context(), id)))
		})
	}
}

// Embedded integrations load the page cross-site, which needs SameSite=None (and Secure).
func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
