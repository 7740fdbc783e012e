package core

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// The browser only ever holds a CSRF token and the credential epoch it was
// minted under. The API credential stays inside the process.
const (
	uiSessionName   = "buzzy_ui"
	uiSessionMaxAge = 7 * 24 * 3600
	csrfHeader      = "X-CSRF-Token"
	ctxUISession    = "ui_session"
)

// NewCookieStore builds the cookie store backing the UI session.
func NewCookieStore(cfg Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   uiSessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: sameSiteFromString(cfg.CookieSameSite),
	}
	return store
}

// BrowserOriginMiddleware admits requests without an origin (curl, scripts)
// and requests coming from one of the configured UI origins, answering their
// preflights directly.
func BrowserOriginMiddleware(cfg Config) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[normalizeOrigin(o)] = true
	}
	return func(c *gin.Context) {
		origin := requestOrigin(c.Request)
		if origin == "" {
			c.Next()
			return
		}
		if !allowed[origin] {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Expose-Headers", csrfHeader)
		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+csrfHeader)
			h.Set("Access-Control-Allow-Methods", "GET, POST")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestOrigin prefers Origin and falls back to the scheme and host of the
// Referer.
func requestOrigin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return normalizeOrigin(o)
	}
	if u, err := url.Parse(r.Referer()); err == nil && u.Host != "" {
		return normalizeOrigin(u.Scheme + "://" + u.Host)
	}
	return ""
}

func normalizeOrigin(o string) string {
	return strings.ToLower(strings.TrimRight(o, "/"))
}

// uiSession is the decoded UI cookie of one request.
type uiSession struct {
	raw  *sessions.Session
	ctrl *SessionController
}

// token returns a CSRF token bound to the controller's current epoch. A token
// minted before the last login, logout or invalidation is replaced, so a
// page left open across a logout cannot write with its old token.
func (u *uiSession) token(w http.ResponseWriter, r *http.Request) (string, error) {
	epoch := u.ctrl.Epoch()
	tok, _ := u.raw.Values["csrf"].(string)
	minted, _ := u.raw.Values["epoch"].(uint64)
	if tok != "" && minted == epoch {
		return tok, nil
	}
	tok, err := newCSRFToken()
	if err != nil {
		return "", err
	}
	u.raw.Values["csrf"] = tok
	u.raw.Values["epoch"] = epoch
	return tok, u.raw.Save(r, w)
}

// UISessionMiddleware loads the UI cookie and guards writes: a write needs
// the current CSRF token (login and register excepted) and is refused while
// the session is still hydrating. The token is echoed in X-CSRF-Token once
// the request passes.
func UISessionMiddleware(store *sessions.CookieStore, ctrl *SessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		// an undecodable cookie (rotated key, tampering) starts a fresh session
		raw, _ := store.Get(c.Request, uiSessionName)
		if raw == nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
			c.Abort()
			return
		}
		ui := &uiSession{raw: raw, ctrl: ctrl}
		tok, err := ui.token(c.Writer, c.Request)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to issue csrf token")
			c.Abort()
			return
		}

		if isWrite(c.Request.Method) {
			if !csrfExemptPath(c.Request.URL.Path) && c.GetHeader(csrfHeader) != tok {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "invalid csrf token")
				c.Abort()
				return
			}
			if ctrl.State().Loading {
				c.Header("Retry-After", "1")
				respondError(c, http.StatusServiceUnavailable, "SESSION_LOADING", "session is still loading")
				c.Abort()
				return
			}
		}

		c.Set(ctxUISession, ui)
		c.Header(csrfHeader, tok)
		c.Next()
	}
}

// reissueCSRF hands out a fresh token when the handler just changed the
// credential. It reports false after writing an error response.
func reissueCSRF(c *gin.Context) bool {
	v, ok := c.Get(ctxUISession)
	if !ok {
		return true
	}
	tok, err := v.(*uiSession).token(c.Writer, c.Request)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to issue csrf token")
		return false
	}
	c.Header(csrfHeader, tok)
	return true
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// csrfExemptPath lists the entry points reachable before a token was fetched.
func csrfExemptPath(path string) bool {
	return path == "/api/login" || path == "/api/register"
}

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
