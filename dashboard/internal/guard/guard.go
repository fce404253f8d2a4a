// Package guard resolves the viewer's session for every dashboard request
// and keeps signed-out viewers off the protected pages.
package guard

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/dashboard/internal/otel"
	"github.com/Alturino/dashboard/internal/auth"
	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/log"
	inOtel "github.com/Alturino/dashboard/internal/otel"
)

const (
	PathLogin    = "/login"
	PathProducts = "/products"
)

// HeaderFragment marks script requests for a page fragment. Those get a 401
// instead of a redirect they would follow into the login page.
const HeaderFragment = "X-Fragment"

type Guard struct {
	provider   auth.Provider
	cookieName string
	secure     bool
	loading    http.Handler
}

// New builds a guard. loading renders the page shown while the provider
// cannot be consulted.
func New(provider auth.Provider, cfg config.Dashboard, loading http.Handler) *Guard {
	return &Guard{
		provider:   provider,
		cookieName: cfg.CookieName,
		secure:     cfg.SecureCookie,
		loading:    loading,
	}
}

// Resolve attaches the viewer's auth.State to the request context. A
// provider failure leaves the state uninitialized.
func (g *Guard) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "Guard Resolve")
		defer span.End()

		logger := zerolog.Ctx(c).
			With().
			Ctx(c).
			Str(log.KeyTag, "Guard Resolve").
			Logger()

		logger = logger.With().Str(log.KeyProcess, "resolving session").Logger()
		logger.Trace().Msg("resolving session")
		state, err := auth.Resolve(c, g.provider, g.Token(r))
		if err != nil {
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
		if s, ok := state.Session(); ok {
			logger = logger.With().Str(log.KeySessionID, s.ID).Logger()
		}
		logger.Trace().Str("phase", state.Phase().String()).Msg("resolved session")

		c = logger.WithContext(c)
		next.ServeHTTP(w, r.WithContext(auth.AttachStateToContext(c, state)))
	})
}

// RequireSession lets signed-in viewers through and sends everyone else to
// the sign-in page.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := auth.StateFromContext(r.Context())
		switch {
		case !state.IsReady():
			g.loading.ServeHTTP(w, r)
		case !state.IsAuthenticated():
			if g.Token(r) != "" {
				g.ClearSession(w)
			}
			if r.Header.Get(HeaderFragment) != "" {
				w.Header().Set("Location", PathLogin)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// RedirectAuthenticated sends signed-in viewers away from the sign-in and
// sign-up pages.
func (g *Guard) RedirectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := auth.StateFromContext(r.Context())
		switch {
		case !state.IsReady():
			g.loading.ServeHTTP(w, r)
		case state.IsAuthenticated():
			http.Redirect(w, r, PathProducts, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (g *Guard) Token(r *http.Request) string {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (g *Guard) SetSession(w http.ResponseWriter, token string, session auth.Session) {
	cookie := &http.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !session.ExpiresAt.IsZero() {
		cookie.Expires = session.ExpiresAt
		cookie.MaxAge = int(time.Until(session.ExpiresAt).Seconds())
	}
	http.SetCookie(w, cookie)
}

func (g *Guard) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
