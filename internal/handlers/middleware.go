package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIdCtx = "userId"

// userIdMiddleware resolves the caller from the access token. It does not
// touch storage: access tokens are verified by signature and expiry only.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		h.abortUnauthorized(c, errNotAuthorized)
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		h.abortUnauthorized(c, errBadAuthHeader)
		return
	}

	userId, err := h.services.ParseAccessToken(parts[1])
	if err != nil {
		h.abortUnauthorized(c, unauthorizedMsg(err))
		return
	}

	// store in Gin context
	c.Set(userIdCtx, userId)
	c.Next()
}

func (h *Handler) abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msg})
}

// currentUser returns the id set by userIdMiddleware.
func currentUser(c *gin.Context) int64 {
	return c.GetInt64(userIdCtx)
}

// corsMiddleware allows the configured origins ("*" allows any) with
// credentials, so the refresh cookie survives cross-origin requests.
func (h *Handler) corsMiddleware(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin == "" || !h.originAllowed(origin) {
		c.Next()
		return
	}

	hdr := c.Writer.Header()
	hdr.Set("Access-Control-Allow-Origin", origin)
	hdr.Set("Access-Control-Allow-Credentials", "true")
	hdr.Add("Vary", "Origin")

	if c.Request.Method == http.MethodOptions {
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if req := c.GetHeader("Access-Control-Request-Headers"); req != "" {
			hdr.Set("Access-Control-Allow-Headers", req)
		} else {
			hdr.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		hdr.Set("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func (h *Handler) originAllowed(origin string) bool {
	for _, o := range h.cfg.CORSOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
