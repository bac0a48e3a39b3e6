package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxhur/tinyapp/internal/db/memorystorage"
	"github.com/maxhur/tinyapp/internal/logger"
	"github.com/maxhur/tinyapp/internal/models"
	"github.com/maxhur/tinyapp/internal/shortcode"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

const testCookieName = "tinyapp_session"

func newTestAuth(t *testing.T) *Auth {
	t.Helper()

	require.NoError(t, logger.Init("error"))

	db, err := memorystorage.New()
	require.NoError(t, err)

	return New(db, shortcode.New(), testCookieName, testSigningKey, 24*time.Hour)
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == testCookieName {
			return cookie
		}
	}

	return nil
}

func TestRegisterThenLogin(t *testing.T) {
	theAuth := newTestAuth(t)
	ctx := context.Background()

	recorder := httptest.NewRecorder()
	registeredID, err := theAuth.Register(ctx, recorder, "a@x.com", "pw1")
	require.NoError(t, err, "The `theAuth.Register()` should not return error")
	assert.Len(t, registeredID, shortcode.CodeLength)

	cookie := sessionCookie(t, recorder)
	require.NotNil(t, cookie, "Registration should set the session cookie")
	assert.NotEmpty(t, cookie.Value)

	recorder = httptest.NewRecorder()
	loggedInID, err := theAuth.Login(ctx, recorder, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, registeredID, loggedInID)
	require.NotNil(t, sessionCookie(t, recorder))
}

func TestLoginFailsUniformly(t *testing.T) {
	theAuth := newTestAuth(t)
	ctx := context.Background()

	_, err := theAuth.Register(ctx, httptest.NewRecorder(), "a@x.com", "pw1")
	require.NoError(t, err)

	_, err = theAuth.Login(ctx, httptest.NewRecorder(), "a@x.com", "wrongpw")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = theAuth.Login(ctx, httptest.NewRecorder(), "nobody@x.com", "pw1")
	assert.ErrorIs(
		t,
		err,
		models.ErrInvalidCredentials,
		"Unknown email and wrong password should be indistinguishable",
	)
}

func TestRegisterValidation(t *testing.T) {
	theAuth := newTestAuth(t)
	ctx := context.Background()

	_, err := theAuth.Register(ctx, httptest.NewRecorder(), "", "pw1")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = theAuth.Register(ctx, httptest.NewRecorder(), "a@x.com", "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = theAuth.Register(ctx, httptest.NewRecorder(), "a@x.com", "pw1")
	require.NoError(t, err)

	_, err = theAuth.Register(ctx, httptest.NewRecorder(), "a@x.com", "pw2")
	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestLogoutIdempotent(t *testing.T) {
	theAuth := newTestAuth(t)

	_, err := theAuth.Register(context.Background(), httptest.NewRecorder(), "a@x.com", "pw1")
	require.NoError(t, err)

	firstRecorder := httptest.NewRecorder()
	theAuth.Logout(firstRecorder)

	secondRecorder := httptest.NewRecorder()
	theAuth.Logout(secondRecorder)

	firstCookie := sessionCookie(t, firstRecorder)
	secondCookie := sessionCookie(t, secondRecorder)
	require.NotNil(t, firstCookie)
	require.NotNil(t, secondCookie)
	assert.Empty(t, firstCookie.Value)
	assert.Equal(t, firstCookie.Value, secondCookie.Value)
	assert.Less(t, firstCookie.MaxAge, 0)
}

func TestSessionCookieClaims(t *testing.T) {
	theAuth := newTestAuth(t)

	recorder := httptest.NewRecorder()
	userID, err := theAuth.Register(context.Background(), recorder, "a@x.com", "pw1")
	require.NoError(t, err)

	cookie := sessionCookie(t, recorder)
	require.NotNil(t, cookie)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return testSigningKey, nil
		},
	)
	require.NoError(t, err)
	require.True(t, token.Valid)
	assert.Equal(t, userID, claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(
		t,
		time.Now().Add(24*time.Hour),
		claims.ExpiresAt.Time,
		time.Minute,
		"The session should expire 24 hours after issue",
	)
}

func TestAuthenticateUserMiddleware(t *testing.T) {
	theAuth := newTestAuth(t)

	recorder := httptest.NewRecorder()
	userID, err := theAuth.Register(context.Background(), recorder, "a@x.com", "pw1")
	require.NoError(t, err)
	cookie := sessionCookie(t, recorder)
	require.NotNil(t, cookie)

	var seenUserID string
	var seenSession bool
	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, seenSession = CurrentUserID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/urls", nil)
	request.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.True(t, seenSession)
	assert.Equal(t, userID, seenUserID)

	// No cookie: the request passes through anonymously.
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/urls", nil))
	assert.False(t, seenSession)
	assert.Empty(t, seenUserID)

	// Tampered cookie: same anonymous degradation.
	request = httptest.NewRequest(http.MethodGet, "/urls", nil)
	request.AddCookie(&http.Cookie{Name: testCookieName, Value: cookie.Value + "x"})
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.False(t, seenSession)
}
