package middleware

import (
	"net/http"

	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/logger"
	pkgsession "github.com/campusfreestore/freestore-backend/pkg/session"
)

// Session identifies the anonymous browser session carrying the cart and the
// enrollment wizard. A missing or malformed cookie gets a fresh ID; the
// session itself lives in Redis and expires on its own.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				sid = cookie.Value
			}
			if sid == "" {
				sid = pkgsession.NewSessionID()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionID(r.Context(), sid)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
