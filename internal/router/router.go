// Package router wires the HTTP routes to the auth and URL services and
// translates domain errors into status codes, redirects and refusal pages.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/maxhur/tinyapp/internal/auth"
	"github.com/maxhur/tinyapp/internal/gzippedhttp"
	"github.com/maxhur/tinyapp/internal/logger"
	"github.com/maxhur/tinyapp/internal/models"
)

type urlService interface {
	Shorten(ctx context.Context, destination, ownerID string) (string, error)
	Resolve(ctx context.Context, code string) (string, error)
	GetForOwner(ctx context.Context, code, requesterID string) (models.ShortURLEntry, error)
	Update(ctx context.Context, code, newDestination, requesterID string) error
	Delete(ctx context.Context, code, requesterID string) error
	ListForOwner(ctx context.Context, ownerID string) ([]models.ShortURLEntry, error)
	DumpAll(ctx context.Context) (map[string]models.ShortURLEntry, error)
	GetShortURL(code string) string
}

type authService interface {
	Register(ctx context.Context, response http.ResponseWriter, email, password string) (string, error)
	Login(ctx context.Context, response http.ResponseWriter, email, password string) (string, error)
	Logout(response http.ResponseWriter)
	AuthenticateUser(h http.Handler) http.Handler
}

// Router holds the handlers of the whole HTTP surface.
type Router struct {
	urls urlService
	auth authService
}

// New builds the chi mux with logging, gzip and session middleware and
// every application route.
func New(urls urlService, authSvc authService) *chi.Mux {
	theRouter := &Router{
		urls: urls,
		auth: authSvc,
	}

	mux := chi.NewRouter()
	mux.Use(logger.WithLoggingHTTPMiddleware)
	mux.Use(gzippedhttp.UngzipRequest)
	mux.Use(gzippedhttp.GzipResponse)
	mux.Use(authSvc.AuthenticateUser)

	mux.Get(`/`, theRouter.getRoot)
	mux.Get(`/urls.json`, theRouter.getUrlsJSON)
	mux.Get(`/urls`, theRouter.getUrls)
	mux.Get(`/urls/new`, theRouter.getUrlsNew)
	mux.Post(`/urls`, theRouter.postUrls)
	mux.Get(`/urls/{code}`, theRouter.getUrlsShow)
	mux.Post(`/urls/{code}`, theRouter.postUrlsUpdate)
	mux.Post(`/urls/{code}/delete`, theRouter.postUrlsDelete)
	mux.Get(`/u/{code}`, theRouter.getRedirectToDestination)
	mux.Get(`/register`, theRouter.getRegister)
	mux.Post(`/register`, theRouter.postRegister)
	mux.Get(`/login`, theRouter.getLogin)
	mux.Post(`/login`, theRouter.postLogin)
	mux.Post(`/logout`, theRouter.postLogout)

	return mux
}

func (theRouter *Router) getRoot(response http.ResponseWriter, request *http.Request) {
	http.Redirect(response, request, "/urls", http.StatusFound)
}

func (theRouter *Router) getUrlsJSON(response http.ResponseWriter, request *http.Request) {
	dump, err := theRouter.urls.DumpAll(request.Context())
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)

		return
	}

	writeJSON(response, dump)
}

func (theRouter *Router) getUrls(response http.ResponseWriter, request *http.Request) {
	userID, hasSession := auth.CurrentUserID(request.Context())
	if !hasSession {
		renderPage(response, "prompt", nil)

		return
	}

	entries, err := theRouter.urls.ListForOwner(request.Context(), userID)
	if err != nil {
		respondWithError(response, err)

		return
	}

	rows := make([]urlRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, urlRow{
			Code:        entry.Code,
			Destination: entry.Destination,
			ShortURL:    theRouter.urls.GetShortURL(entry.Code),
		})
	}

	renderPage(response, "index", indexPageData{UserID: userID, Urls: rows})
}

func (theRouter *Router) getUrlsNew(response http.ResponseWriter, request *http.Request) {
	if _, hasSession := auth.CurrentUserID(request.Context()); !hasSession {
		http.Redirect(response, request, "/login", http.StatusFound)

		return
	}

	renderPage(response, "new", nil)
}

func (theRouter *Router) postUrls(response http.ResponseWriter, request *http.Request) {
	userID, hasSession := auth.CurrentUserID(request.Context())
	if !hasSession {
		response.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(response, "You cannot create new shortened URL if you are not logged in.")

		return
	}

	code, err := theRouter.urls.Shorten(request.Context(), request.FormValue("destination"), userID)
	if err != nil {
		respondWithError(response, err)

		return
	}

	http.Redirect(response, request, "/urls/"+code, http.StatusFound)
}

func (theRouter *Router) getUrlsShow(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.CurrentUserID(request.Context())
	code := chi.URLParam(request, "code")

	entry, err := theRouter.urls.GetForOwner(request.Context(), code, userID)
	if err != nil {
		respondWithError(response, err)

		return
	}

	renderPage(response, "show", urlRow{
		Code:        entry.Code,
		Destination: entry.Destination,
		ShortURL:    theRouter.urls.GetShortURL(entry.Code),
	})
}

func (theRouter *Router) postUrlsUpdate(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.CurrentUserID(request.Context())
	code := chi.URLParam(request, "code")

	err := theRouter.urls.Update(request.Context(), code, request.FormValue("destination"), userID)
	if err != nil {
		respondWithError(response, err)

		return
	}

	http.Redirect(response, request, "/urls/"+code, http.StatusFound)
}

func (theRouter *Router) postUrlsDelete(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.CurrentUserID(request.Context())
	code := chi.URLParam(request, "code")

	if err := theRouter.urls.Delete(request.Context(), code, userID); err != nil {
		respondWithError(response, err)

		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

func (theRouter *Router) getRedirectToDestination(response http.ResponseWriter, request *http.Request) {
	code := chi.URLParam(request, "code")

	destination, err := theRouter.urls.Resolve(request.Context(), code)
	if errors.Is(err, models.ErrNotFound) {
		response.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(response, "The %s does not exist", code)

		return
	}
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)

		return
	}

	http.Redirect(response, request, destination, http.StatusTemporaryRedirect)
}

func (theRouter *Router) getRegister(response http.ResponseWriter, request *http.Request) {
	if _, hasSession := auth.CurrentUserID(request.Context()); hasSession {
		http.Redirect(response, request, "/urls", http.StatusFound)

		return
	}

	renderPage(response, "register", nil)
}

func (theRouter *Router) postRegister(response http.ResponseWriter, request *http.Request) {
	_, err := theRouter.auth.Register(
		request.Context(),
		response,
		request.FormValue("email"),
		request.FormValue("password"),
	)
	if errors.Is(err, models.ErrInvalidInput) {
		response.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(response, "Must fill out Email and Password")

		return
	}
	if err != nil {
		respondWithError(response, err)

		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

func (theRouter *Router) getLogin(response http.ResponseWriter, request *http.Request) {
	if _, hasSession := auth.CurrentUserID(request.Context()); hasSession {
		http.Redirect(response, request, "/urls", http.StatusFound)

		return
	}

	renderPage(response, "login", nil)
}

func (theRouter *Router) postLogin(response http.ResponseWriter, request *http.Request) {
	_, err := theRouter.auth.Login(
		request.Context(),
		response,
		request.FormValue("email"),
		request.FormValue("password"),
	)
	if err != nil {
		respondWithError(response, err)

		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

func (theRouter *Router) postLogout(response http.ResponseWriter, request *http.Request) {
	theRouter.auth.Logout(response)
	http.Redirect(response, request, "/login", http.StatusFound)
}

// respondWithError maps a domain error to its status code and a short
// plain-text refusal.
func respondWithError(response http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		http.Error(response, "Must fill out all required fields", http.StatusBadRequest)

	case errors.Is(err, models.ErrUnauthenticated):
		http.Error(response, "Please login or register", http.StatusUnauthorized)

	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrInvalidCredentials):
		http.Error(response, "403: Forbidden", http.StatusForbidden)

	case errors.Is(err, models.ErrNotFound):
		http.Error(response, "not found", http.StatusNotFound)

	default:
		logger.Log.Debugln("Unexpected error reached the router: ", zap.Error(err))
		http.Error(response, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(response http.ResponseWriter, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the JSON response: ", zap.Error(err))
	}
}

type urlRow struct {
	Code        string
	Destination string
	ShortURL    string
}

type indexPageData struct {
	UserID string
	Urls   []urlRow
}

// The page markup is deliberately minimal; rendering is glue, not core.
const pagesTemplate = `
{{define "prompt"}}<html><body><h1>Please login or register</h1>
<form method="GET" action="/login"><button type="submit">Login</button></form>
<form method="GET" action="/register"><button type="submit">Register</button></form>
</body></html>{{end}}

{{define "index"}}<html><body><h1>My URLs</h1>
<p>Logged in as {{.UserID}}. <a href="/urls/new">Create new</a></p>
<table>
<tr><th>Code</th><th>Destination</th><th>Short URL</th></tr>
{{range .Urls}}<tr><td><a href="/urls/{{.Code}}">{{.Code}}</a></td><td>{{.Destination}}</td><td>{{.ShortURL}}</td></tr>
{{end}}</table>
</body></html>{{end}}

{{define "new"}}<html><body><h1>Create new short URL</h1>
<form method="POST" action="/urls">
<input type="text" name="destination" placeholder="http://example.com">
<button type="submit">Submit</button>
</form>
</body></html>{{end}}

{{define "show"}}<html><body><h1>{{.Code}}</h1>
<p>Short URL: <a href="{{.ShortURL}}">{{.ShortURL}}</a></p>
<p>Destination: {{.Destination}}</p>
<form method="POST" action="/urls/{{.Code}}">
<input type="text" name="destination" value="{{.Destination}}">
<button type="submit">Update</button>
</form>
<form method="POST" action="/urls/{{.Code}}/delete"><button type="submit">Delete</button></form>
</body></html>{{end}}

{{define "register"}}<html><body><h1>Register</h1>
<form method="POST" action="/register">
<input type="email" name="email" placeholder="Email">
<input type="password" name="password" placeholder="Password">
<button type="submit">Register</button>
</form>
</body></html>{{end}}

{{define "login"}}<html><body><h1>Login</h1>
<form method="POST" action="/login">
<input type="email" name="email" placeholder="Email">
<input type="password" name="password" placeholder="Password">
<button type="submit">Login</button>
</form>
</body></html>{{end}}
`

var pageTemplates = template.Must(template.New("pages").Parse(pagesTemplate))

func renderPage(response http.ResponseWriter, name string, data interface{}) {
	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(response, name, data); err != nil {
		logger.Log.Debugln("Error rendering the page template: ", zap.Error(err))
	}
}
