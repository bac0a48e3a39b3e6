// Package auth manages credential-based authentication and the signed
// session cookie. The session is an HMAC-signed JWT carrying a single
// user id claim with an absolute expiry; the middleware resolves it into
// the request context, where handlers read it via CurrentUserID.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/maxhur/tinyapp/internal/logger"
	"github.com/maxhur/tinyapp/internal/models"
	"github.com/maxhur/tinyapp/internal/user"
)

// PasswordHashCost is the bcrypt cost factor for newly registered users.
const PasswordHashCost = 10

type userKeeper interface {
	InsertUserIfAbsent(ctx context.Context, usr *user.User) (bool, error)
	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)
	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

type idGenerator interface {
	Generate() (string, error)
}

// Auth registers and authenticates users and issues the session cookie.
type Auth struct {
	db userKeeper

	generator idGenerator

	// authCookieName is the name of the cookie used to store the session JWT.
	authCookieName string

	// authCookieSigningSecretKey is the key used to sign session JWTs.
	authCookieSigningSecretKey []byte

	// sessionTTL is the absolute lifetime of an issued session.
	sessionTTL time.Duration
}

// Claims represents the session JWT claims: the standard set plus the
// authenticated user's identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// New creates an Auth with the given user storage, id generator, cookie
// name, signing secret and session lifetime.
func New(
	db userKeeper,
	generator idGenerator,
	authCookieName string,
	authCookieSigningSecretKey []byte,
	sessionTTL time.Duration,
) *Auth {
	return &Auth{
		db:                         db,
		generator:                  generator,
		authCookieName:             authCookieName,
		authCookieSigningSecretKey: authCookieSigningSecretKey,
		sessionTTL:                 sessionTTL,
	}
}

// Register creates a user from the email/password pair, stores the bcrypt
// hash of the password and opens a session for the new user. It fails with
// models.ErrInvalidInput when either field is empty and with
// models.ErrEmailTaken when the email is already registered.
func (a *Auth) Register(
	ctx context.Context,
	response http.ResponseWriter,
	email,
	password string,
) (string, error) {
	if email == "" || password == "" {
		return "", models.ErrInvalidInput
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", fmt.Errorf("password hashing failed: %w", err)
	}

	userID, err := a.insertUserWithFreshID(ctx, email, string(passwordHash))
	if err != nil {
		return "", err
	}

	if err := a.OpenSession(response, userID); err != nil {
		return "", err
	}

	logger.Log.Infoln("new user registered", "userID", userID)

	return userID, nil
}

// insertUserWithFreshID issues ids from the shared generator until the
// storage accepts one. The existence check and the insert run atomically
// inside the storage, so concurrent registrations never share an id.
func (a *Auth) insertUserWithFreshID(ctx context.Context, email, passwordHash string) (string, error) {
	for {
		userID, err := a.generator.Generate()
		if err != nil {
			return "", err
		}

		inserted, err := a.db.InsertUserIfAbsent(ctx, &user.User{
			ID:           userID,
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return "", err
		}
		if inserted {
			return userID, nil
		}
	}
}

// Login verifies the email/password pair and opens a session. Unknown
// email and wrong password both fail with models.ErrInvalidCredentials,
// so the response does not leak which one it was.
func (a *Auth) Login(
	ctx context.Context,
	response http.ResponseWriter,
	email,
	password string,
) (string, error) {
	usr, found, err := a.db.FindUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !found {
		return "", models.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password))
	if err != nil {
		return "", models.ErrInvalidCredentials
	}

	if err := a.OpenSession(response, usr.ID); err != nil {
		return "", err
	}

	return usr.ID, nil
}

// Logout clears the session cookie unconditionally. Calling it on an
// already cleared session is a no-op with the same result.
func (a *Auth) Logout(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		},
	)
}

// OpenSession signs a session JWT for the user and sets it as the session
// cookie with the configured absolute expiry.
func (a *Auth) OpenSession(response http.ResponseWriter, userID string) error {
	expiresAt := time.Now().Add(a.sessionTTL)

	JWTString, err := a.buildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})
	if err != nil {
		return err
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    JWTString,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
		},
	)

	return nil
}

// AuthenticateUser is an HTTP middleware that resolves the session cookie
// into a user id in the request context. Requests without a valid session
// pass through unauthenticated; refusing them is up to each handler.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, err := a.getUserIDFromCookie(request)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.getUserIDFromCookie()`: ", zap.Error(err))
			h.ServeHTTP(response, request)

			return
		}
		if userID == "" {
			h.ServeHTTP(response, request)

			return
		}

		usr, found, err := a.db.FindUserByID(request.Context(), userID)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.db.FindUserByID()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)

			return
		}
		if !found {
			// Session refers to a user the store no longer knows.
			h.ServeHTTP(response, request)

			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, usr.ID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// CurrentUserID returns the authenticated user's id from the request
// context, reporting whether a session is present.
func CurrentUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)

	return userID, ok && userID != ""
}

func (a *Auth) getUserIDFromCookie(request *http.Request) (string, error) {
	cookie, err := request.Cookie(a.authCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.authCookieSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		// Tampered or expired cookie degrades to an anonymous request.
		return "", nil
	}

	return claims.UserID, nil
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.authCookieSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
