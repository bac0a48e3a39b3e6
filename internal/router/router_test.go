package router

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxhur/tinyapp/internal/auth"
	"github.com/maxhur/tinyapp/internal/db/memorystorage"
	"github.com/maxhur/tinyapp/internal/logger"
	"github.com/maxhur/tinyapp/internal/models"
	"github.com/maxhur/tinyapp/internal/service"
	"github.com/maxhur/tinyapp/internal/shortcode"
)

var shortCodePattern = regexp.MustCompile(`^/urls/(\w{6})$`)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	require.NoError(t, logger.Init("error"))

	db, err := memorystorage.New()
	require.NoError(t, err)

	generator := shortcode.New()
	theAuth := auth.New(
		db,
		generator,
		"tinyapp_session",
		[]byte("0123456789abcdef0123456789abcdef"),
		24*time.Hour,
	)
	theService := service.New(db, generator, "http://localhost:8080")

	server := httptest.NewServer(New(theService, theAuth))
	t.Cleanup(server.Close)

	return server
}

// newTestClient keeps cookies between requests and leaves redirects to
// the test, so each response can be asserted separately.
func newTestClient(t *testing.T, server *httptest.Server) *resty.Client {
	t.Helper()

	client := resty.New().
		SetBaseURL(server.URL).
		SetRedirectPolicy(resty.NoRedirectPolicy())

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client.SetCookieJar(jar)

	return client
}

func registerTestUser(t *testing.T, client *resty.Client, email, password string) {
	t.Helper()

	// The redirect policy turns every redirect into an error; the
	// response still carries the status and headers to assert on.
	response, _ := client.R().
		SetFormData(map[string]string{"email": email, "password": password}).
		Post("/register")
	require.NotNil(t, response)
	require.Equal(t, http.StatusFound, response.StatusCode())
	require.Equal(t, "/urls", response.Header().Get("Location"))
}

func TestFullScenario(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	// Anonymous visitor gets the login/register prompt, not the list.
	response, _ := client.R().Get("/urls")
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Contains(t, string(response.Body()), "Please login or register")

	registerTestUser(t, client, "a@x.com", "pw1")

	// Create an entry and follow the redirect target by hand.
	response, _ = client.R().
		SetFormData(map[string]string{"destination": "http://example.com"}).
		Post("/urls")
	require.Equal(t, http.StatusFound, response.StatusCode())

	location := response.Header().Get("Location")
	matches := shortCodePattern.FindStringSubmatch(location)
	require.NotNil(t, matches, "The redirect %q should point at the new entry", location)
	code := matches[1]

	// The owner sees the entry.
	response, _ = client.R().Get("/urls/" + code)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Contains(t, string(response.Body()), "http://example.com")

	// The public redirect works without a session.
	anonymous := newTestClient(t, server)
	response, _ = anonymous.R().Get("/u/" + code)
	require.Equal(t, http.StatusTemporaryRedirect, response.StatusCode())
	assert.Equal(t, "http://example.com", response.Header().Get("Location"))

	// Missing codes produce the plain-text refusal, never a panic.
	response, _ = anonymous.R().Get("/u/zzz999")
	require.Equal(t, http.StatusNotFound, response.StatusCode())
	assert.Contains(t, string(response.Body()), "The zzz999 does not exist")

	// Logout drops the session; the list page shows the prompt again.
	response, _ = client.R().Post("/logout")
	require.Equal(t, http.StatusFound, response.StatusCode())
	assert.Equal(t, "/login", response.Header().Get("Location"))

	response, _ = client.R().Get("/urls")
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Contains(t, string(response.Body()), "Please login or register")
}

func TestOwnershipRefusals(t *testing.T) {
	server := newTestServer(t)

	owner := newTestClient(t, server)
	registerTestUser(t, owner, "owner@x.com", "pw1")

	response, _ := owner.R().
		SetFormData(map[string]string{"destination": "http://example.com"}).
		Post("/urls")
	require.Equal(t, http.StatusFound, response.StatusCode())
	code := shortCodePattern.FindStringSubmatch(response.Header().Get("Location"))[1]

	intruder := newTestClient(t, server)
	registerTestUser(t, intruder, "intruder@x.com", "pw2")

	response, _ = intruder.R().Get("/urls/" + code)
	assert.Equal(t, http.StatusForbidden, response.StatusCode())

	response, _ = intruder.R().
		SetFormData(map[string]string{"destination": "http://hijacked.example"}).
		Post("/urls/" + code)
	assert.Equal(t, http.StatusForbidden, response.StatusCode())

	response, _ = intruder.R().Post("/urls/" + code + "/delete")
	assert.Equal(t, http.StatusForbidden, response.StatusCode())

	// The entry survived the intruder untouched.
	response, _ = owner.R().Get("/urls/" + code)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Contains(t, string(response.Body()), "http://example.com")
}

func TestAnonymousRefusals(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	response, _ := client.R().Get("/urls/new")
	require.Equal(t, http.StatusFound, response.StatusCode())
	assert.Equal(t, "/login", response.Header().Get("Location"))

	response, _ = client.R().
		SetFormData(map[string]string{"destination": "http://example.com"}).
		Post("/urls")
	require.Equal(t, http.StatusUnauthorized, response.StatusCode())
	assert.Contains(
		t,
		string(response.Body()),
		"You cannot create new shortened URL if you are not logged in.",
	)
}

func TestRegisterRefusals(t *testing.T) {
	server := newTestServer(t)

	client := newTestClient(t, server)
	response, _ := client.R().
		SetFormData(map[string]string{"email": "", "password": "pw1"}).
		Post("/register")
	require.Equal(t, http.StatusBadRequest, response.StatusCode())
	assert.Contains(t, string(response.Body()), "Must fill out Email and Password")

	registerTestUser(t, newTestClient(t, server), "a@x.com", "pw1")

	response, _ = newTestClient(t, server).R().
		SetFormData(map[string]string{"email": "a@x.com", "password": "pw2"}).
		Post("/register")
	require.Equal(t, http.StatusForbidden, response.StatusCode())
	assert.Contains(t, string(response.Body()), "403: Forbidden")

	response, _ = newTestClient(t, server).R().
		SetFormData(map[string]string{"email": "a@x.com", "password": "wrongpw"}).
		Post("/login")
	require.Equal(t, http.StatusForbidden, response.StatusCode())
	assert.Contains(t, string(response.Body()), "403: Forbidden")
}

func TestUrlsJSONDump(t *testing.T) {
	server := newTestServer(t)

	client := newTestClient(t, server)
	registerTestUser(t, client, "a@x.com", "pw1")

	response, _ := client.R().
		SetFormData(map[string]string{"destination": "http://example.com"}).
		Post("/urls")
	require.Equal(t, http.StatusFound, response.StatusCode())
	code := shortCodePattern.FindStringSubmatch(response.Header().Get("Location"))[1]

	// The dump is public debug output.
	response, _ = newTestClient(t, server).R().Get("/urls.json")
	require.Equal(t, http.StatusOK, response.StatusCode())

	dump := map[string]models.ShortURLEntry{}
	require.NoError(t, json.Unmarshal(response.Body(), &dump))
	require.Contains(t, dump, code)
	assert.Equal(t, "http://example.com", dump[code].Destination)
}
