package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance_tracker/internal/apperr"
	"finance_tracker/internal/models"
	"finance_tracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	s, _ := m["detail"].(string)
	return s
}

func TestRegister(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		user     *models.User
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "created",
			body:     `{"username":"alice","password":"pw123456"}`,
			user:     &models.User{ID: 1, Username: "alice", IsActive: true},
			wantCode: http.StatusCreated,
		},
		{
			name:     "username taken",
			body:     `{"username":"alice","password":"pw123456"}`,
			err:      apperr.Conflict("User with this username already exists"),
			wantCode: http.StatusBadRequest,
			wantMsg:  "User with this username already exists",
		},
		{
			name:     "missing password",
			body:     `{"username":"alice"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed json",
			body:     `{"username":1}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{registerUser: tc.user, registerErr: tc.err}
			r := newTestRouter(&service.Service{Authorization: auth})

			w := doRequest(r, http.MethodPost, "/api/v1/auth/register", tc.body, nil)
			require.Equal(t, tc.wantCode, w.Code, w.Body.String())

			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, detail(t, w))
			}
			if tc.wantCode == http.StatusCreated {
				assert.Equal(t, "alice", auth.lastUsername)
				assert.Equal(t, "pw123456", auth.lastPassword)
				assert.Contains(t, w.Body.String(), `"username":"alice"`)
				assert.NotContains(t, w.Body.String(), "password")
			}
		})
	}
}

func TestLogin_SetsCookieAndReturnsPair(t *testing.T) {
	auth := &mockAuth{loginPair: service.TokenPair{
		AccessToken:      "acc",
		RefreshToken:     "ref",
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}}
	r := newTestRouterWith(&service.Service{Authorization: auth}, Config{CookieSecure: true})

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"pw123456"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, TokenResponse{AccessToken: "acc", RefreshToken: "ref", TokenType: "bearer"}, resp)

	c := refreshCookie(t, w)
	require.NotNil(t, c)
	assert.Equal(t, "ref", c.Value)
	assert.Equal(t, refreshCookiePath, c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.InDelta(t, 7*24*3600, c.MaxAge, 5)
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"bad credentials", apperr.Unauthorized("Incorrect username or password"), http.StatusUnauthorized, "Incorrect username or password"},
		{"inactive", apperr.BadRequest("Inactive user"), http.StatusBadRequest, "Inactive user"},
		{"storage", assert.AnError, http.StatusInternalServerError, errInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: &mockAuth{loginErr: tc.err}})

			w := doRequest(r, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"x"}`, nil)
			require.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantMsg, detail(t, w))
			assert.Nil(t, refreshCookie(t, w))
			if tc.wantCode == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRefresh_FromCookie(t *testing.T) {
	auth := &mockAuth{refreshPair: service.TokenPair{
		AccessToken:      "acc2",
		RefreshToken:     "ref2",
		RefreshExpiresAt: time.Now().Add(time.Hour),
	}}
	r := newTestRouter(&service.Service{Authorization: auth})

	hdr := http.Header{}
	hdr.Set("Cookie", refreshCookieName+"=ref1")
	w := doRequest(r, http.MethodPost, "/api/v1/auth/refresh", "", hdr)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "ref1", auth.lastRefresh)
	c := refreshCookie(t, w)
	require.NotNil(t, c)
	assert.Equal(t, "ref2", c.Value)
	assert.Contains(t, w.Body.String(), `"access_token":"acc2"`)
}

func TestRefresh_CookieWinsOverBody(t *testing.T) {
	auth := &mockAuth{refreshPair: service.TokenPair{AccessToken: "a", RefreshToken: "b", RefreshExpiresAt: time.Now().Add(time.Hour)}}
	r := newTestRouter(&service.Service{Authorization: auth})

	hdr := http.Header{}
	hdr.Set("Cookie", refreshCookieName+"=from-cookie")
	w := doRequest(r, http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"from-body"}`, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from-cookie", auth.lastRefresh)
}

func TestRefresh_FromBody(t *testing.T) {
	auth := &mockAuth{refreshPair: service.TokenPair{AccessToken: "a", RefreshToken: "b", RefreshExpiresAt: time.Now().Add(time.Hour)}}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := doRequest(r, http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"from-body"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from-body", auth.lastRefresh)
}

func TestRefresh_MissingTokenClearsCookie(t *testing.T) {
	auth := &mockAuth{}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := doRequest(r, http.MethodPost, "/api/v1/auth/refresh", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errRefreshMissing, detail(t, w))
	assert.Empty(t, auth.lastRefresh)

	c := refreshCookie(t, w)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestRefresh_RejectedClearsCookie(t *testing.T) {
	for _, msg := range []string{
		"Invalid refresh token",
		"Refresh token has been revoked",
		"Refresh token has expired",
		"User not found or inactive",
	} {
		t.Run(msg, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: &mockAuth{refreshErr: apperr.Unauthorized(msg)}})

			w := doRequest(r, http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"old"}`, nil)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, msg, detail(t, w))

			c := refreshCookie(t, w)
			require.NotNil(t, c)
			assert.Negative(t, c.MaxAge)
		})
	}
}

func TestRefresh_StorageErrorKeepsCookie(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{refreshErr: assert.AnError}})

	w := doRequest(r, http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"old"}`, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errInternal, detail(t, w))
	assert.Nil(t, refreshCookie(t, w))
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		cookie    string
		logoutErr error
		wantToken string
	}{
		{name: "cookie", cookie: "r1", wantToken: "r1"},
		{name: "body", body: `{"refresh_token":"r2"}`, wantToken: "r2"},
		{name: "nothing presented"},
		{name: "service error ignored", cookie: "r3", logoutErr: assert.AnError, wantToken: "r3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{logoutErr: tc.logoutErr}
			r := newTestRouter(&service.Service{Authorization: auth})

			hdr := http.Header{}
			if tc.cookie != "" {
				hdr.Set("Cookie", refreshCookieName+"="+tc.cookie)
			}
			w := doRequest(r, http.MethodPost, "/api/v1/auth/logout", tc.body, hdr)
			require.Equal(t, http.StatusOK, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), msgLoggedOut))
			assert.Equal(t, tc.wantToken, auth.lastLogout)

			c := refreshCookie(t, w)
			require.NotNil(t, c)
			assert.Negative(t, c.MaxAge)
		})
	}
}
