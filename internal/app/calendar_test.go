package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthState_RoundTrip(t *testing.T) {
	a := testApp()

	state, err := a.signOAuthState("org-1")
	require.NoError(t, err)

	orgID, err := a.verifyOAuthState(state)
	require.NoError(t, err)
	assert.Equal(t, "org-1", orgID)
}

func TestOAuthState_RejectsWrongSecret(t *testing.T) {
	a := testApp()
	other := testApp()
	other.Cfg.Auth.JWTSecret = "other-secret"

	state, err := other.signOAuthState("org-1")
	require.NoError(t, err)

	_, err = a.verifyOAuthState(state)
	assert.Error(t, err)
}

func TestOAuthState_RejectsUnsignedValue(t *testing.T) {
	a := testApp()
	for _, state := range []string{"", "org:org-1:1717200000", "not-a-token"} {
		_, err := a.verifyOAuthState(state)
		assert.Error(t, err, state)
	}
}

func TestOAuthState_RejectsSessionToken(t *testing.T) {
	// A login token signed with the same secret must not pass as state.
	a := testApp()
	token := signToken(t, a.Cfg.Auth.JWTSecret, "org-1", time.Hour)

	_, err := a.verifyOAuthState(token)
	assert.Error(t, err)
}

func TestOAuthState_RejectsExpired(t *testing.T) {
	a := testApp()
	claims := jwt.RegisteredClaims{
		Subject:   "org-1",
		Audience:  jwt.ClaimStrings{oauthStateAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Cfg.Auth.JWTSecret))
	require.NoError(t, err)

	_, err = a.verifyOAuthState(state)
	assert.Error(t, err)
}

func TestGoogleOAuth2Callback_RejectsForgedState(t *testing.T) {
	a := testApp()
	a.Cfg.Google.ClientID = "client-id"
	a.Cfg.Google.ClientSecret = "client-secret"
	a.Cfg.Google.RedirectURL = "http://localhost/oauth2callback"

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	// A forged state naming a victim organisation is refused before the code
	// exchange or any integration write.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=abc&state=org:victim-org:1717200000", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
