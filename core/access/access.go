/*
Package access provides the session gate of the service.

After login the backend session secret is wrapped into a signed JWT and handed
to the browser as the "secretJwt" cookie. Mutating routes are wrapped with
Gate.Require, which verifies the cookie before any backend call is made and
stores the session secret in the request context:

	secret, ok := access.SessionFromContext(r.Context())

The gate fails closed. A missing cookie is answered with the configured
status (404 by default), a cookie that does not verify with 401.
*/
package access

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/relabs-tech/sakamichi/core/httperr"
	"github.com/relabs-tech/sakamichi/core/logger"
)

// CookieName is the name of the session cookie
const CookieName = "secretJwt"

// SessionTTL is the lifetime of a session cookie. Cookies are never renewed.
const SessionTTL = time.Hour

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

const contextKeySession contextKey = "_session_"

// Builder is a builder helper for the Gate
type Builder struct {
	// Secret signs the session cookie
	Secret string
	// Domain of the session cookie
	Domain string
	// MissingStatus is returned when the cookie is absent. Defaults to 404.
	MissingStatus int
	// Now is optional and defaults to time.Now
	Now func() time.Time
}

// Gate verifies and mints session cookies
type Gate struct {
	secret        []byte
	domain        string
	missingStatus int
	now           func() time.Time
}

type sessionClaims struct {
	Secret string `json:"sec"`
	jwt.RegisteredClaims
}

// NewGate returns a new gate
func NewGate(b *Builder) *Gate {
	g := &Gate{
		secret:        []byte(b.Secret),
		domain:        b.Domain,
		missingStatus: b.MissingStatus,
		now:           b.Now,
	}
	if g.missingStatus == 0 {
		g.missingStatus = http.StatusNotFound
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// MissingSessionError is the error returned when a request carries no session cookie
func (g *Gate) MissingSessionError() *httperr.Error {
	return &httperr.Error{
		Kind:    httperr.KindAuth,
		Status:  g.missingStatus,
		Message: fmt.Sprintf("Error:S%d Need Cookies JWT as auth", g.missingStatus),
		Cause:   "No Cookies detected please login first",
	}
}

// Session extracts the backend session secret from the request's cookie
func (g *Gate) Session(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", g.MissingSessionError()
	}

	claims := &sessionClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now), jwt.WithExpirationRequired())
	if err != nil || claims.Secret == "" {
		if err == nil {
			err = errors.New("session cookie carries no secret")
		}
		return "", &httperr.Error{
			Kind:    httperr.KindAuth,
			Status:  http.StatusUnauthorized,
			Message: "Error:S401 Invalid session cookie",
			Cause:   "Session cookie could not be verified please login again",
			Err:     err,
		}
	}
	return claims.Secret, nil
}

// Require wraps h so that it only runs for requests with a valid session cookie
func (g *Gate) Require(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret, err := g.Session(r)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		ctx, _ := logger.ContextWithLoggerSession(r.Context(), Fingerprint(secret))
		h.ServeHTTP(w, r.WithContext(ContextWithSession(ctx, secret)))
	})
}

// RequireFunc is Require for handler functions
func (g *Gate) RequireFunc(f http.HandlerFunc) http.Handler {
	return g.Require(f)
}

// Encode signs secret into a cookie value which expires after SessionTTL
func (g *Gate) Encode(secret string) (string, error) {
	now := g.now()
	claims := sessionClaims{
		Secret: secret,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// Mint sets the session cookie carrying secret on w
func (g *Gate) Mint(w http.ResponseWriter, secret string) error {
	value, err := g.Encode(secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   g.domain,
		Expires:  g.now().Add(SessionTTL),
		MaxAge:   int(SessionTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Clear expires the session cookie on w
func (g *Gate) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   g.domain,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ContextWithSession returns a new context carrying the session secret
func ContextWithSession(ctx context.Context, secret string) context.Context {
	return context.WithValue(ctx, contextKeySession, secret)
}

// SessionFromContext returns the session secret stored by Require
func SessionFromContext(ctx context.Context) (string, bool) {
	secret, ok := ctx.Value(contextKeySession).(string)
	return secret, ok && secret != ""
}

// Fingerprint returns a short, non reversible identifier of a session secret for logging
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:6])
}
