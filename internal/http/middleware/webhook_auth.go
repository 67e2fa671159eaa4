package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/notion-ai-webhook/internal/http/response"
)

var errUnauthorized = errors.New("missing or invalid webhook token")

// WebhookAuth requires token as a bearer credential or ?token= query value.
// An empty token disables the check.
func WebhookAuth(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	if token == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := []byte(token)
	return func(c *gin.Context) {
		got := bearerToken(c.GetHeader("Authorization"))
		if got == "" {
			got = strings.TrimSpace(c.Query("token"))
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
