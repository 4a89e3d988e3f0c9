package handlers

import (
	"net/http"
	"time"

	"finance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"

	errRefreshMissing = "Refresh token not provided"
	msgLoggedOut      = "Successfully logged out"
)

// Single, shared credentials payload for both register and login.
type authCredentials struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"pw123456"`
}

// refreshBody is the body carrier for clients that do not keep cookies.
type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type" example:"bearer"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBody+err.Error(), "bad_request_body", err)
		return false
	}
	return true
}

// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      201   {object}  models.User
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	u, err := h.services.Register(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, err, "auth_register_failed")
		return
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary      Login
// @Description  Sets the refresh_token cookie (path /api/v1/auth) and returns the token pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      200   {object}  TokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	pair, err := h.services.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		h.fail(c, err, "auth_login_failed")
		return
	}
	h.respondWithTokens(c, pair)
}

// @Summary      Rotate refresh token
// @Description  Reads the refresh_token cookie, or {"refresh_token": "..."} from the body.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  TokenResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/auth/refresh [post]
func (h *Handler) refresh(c *gin.Context) {
	presented := h.presentedRefreshToken(c)
	if presented == "" {
		h.clearRefreshCookie(c)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": errRefreshMissing})
		return
	}

	pair, err := h.services.Refresh(c.Request.Context(), presented)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			h.clearRefreshCookie(c)
		}
		h.fail(c, err, "auth_refresh_failed")
		return
	}
	h.respondWithTokens(c, pair)
}

// @Summary      Logout
// @Description  Revokes the presented refresh token if known. Always succeeds.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/v1/auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	presented := h.presentedRefreshToken(c)
	_ = h.services.Logout(c.Request.Context(), presented)

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": msgLoggedOut})
}

func (h *Handler) respondWithTokens(c *gin.Context, pair service.TokenPair) {
	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

// presentedRefreshToken prefers the cookie and falls back to the JSON body.
func (h *Handler) presentedRefreshToken(c *gin.Context) string {
	if v, err := c.Cookie(refreshCookieName); err == nil && v != "" {
		return v
	}
	if c.Request.ContentLength == 0 {
		return ""
	}
	var body refreshBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return ""
	}
	return body.RefreshToken
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, maxAge, refreshCookiePath, "", h.cfg.CookieSecure, true)
}

// clearRefreshCookie tells the client to discard the refresh cookie.
func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", h.cfg.CookieSecure, true)
}
