package core

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondAPIError maps an error from the client layer onto the host response.
// Remote rejections keep their status and message; transport failures become 502.
func respondAPIError(c *gin.Context, err error) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		respondError(c, apiErr.StatusCode, codeForStatus(apiErr.StatusCode), apiErr.Message)
	case errors.Is(err, ErrNetwork):
		respondError(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Network error")
	case errors.Is(err, ErrMalformedResponse):
		respondError(c, http.StatusBadGateway, "BAD_UPSTREAM_RESPONSE", err.Error())
	case errors.Is(err, ErrEmptyAppeal), errors.Is(err, ErrInvalidTheme):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", err.Error())
	}
}

// codeForStatus turns 404 into "NOT_FOUND" and so on.
func codeForStatus(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "UPSTREAM_ERROR"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
}
