package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAuthenticated adapts the authenticated gate to gin.
func RequireAuthenticated(ctrl *SessionController) gin.HandlerFunc {
	return gate(ctrl, RequiresAuthenticated)
}

// RequireAdmin adapts the admin gate to gin.
func RequireAdmin(ctrl *SessionController) gin.HandlerFunc {
	return gate(ctrl, RequiresAdmin)
}

func gate(ctrl *SessionController, decide func(State) Decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := decide(ctrl.State())
		switch d.Verdict {
		case Defer:
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"status": "loading"})
		case Redirect:
			c.Redirect(http.StatusFound, d.Location)
			c.Abort()
		default:
			c.Next()
		}
	}
}

// blockedAllowed are the only host paths reachable while the session is blocked.
var blockedAllowed = map[string]struct{}{
	"/healthz":     {},
	"/metrics":     {},
	"/status":      {},
	"/api/session": {},
	"/api/refresh": {},
	"/api/blocked": {},
	"/api/appeal":  {},
	"/api/logout":  {},
}

// BlockedGate pre-empts every other route with the blocked screen.
func BlockedGate(b *BlockedInterceptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := blockedAllowed[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		screen, blocked := b.Screen(b.session.State())
		if !blocked {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   gin.H{"code": "ACCOUNT_BLOCKED", "message": "account is blocked"},
			"blocked": screen,
		})
	}
}
