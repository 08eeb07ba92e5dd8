package access

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate() *Gate {
	return NewGate(&Builder{Secret: "cookie-secret", Domain: "sakamichi.cloud"})
}

func TestMintSetsCookieAttributes(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(&Builder{Secret: "cookie-secret", Domain: "sakamichi.cloud", Now: func() time.Time { return now }})

	rec := httptest.NewRecorder()
	require.NoError(t, g.Mint(rec, "backend-secret"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "sakamichi.cloud", c.Domain)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.NotContains(t, c.Value, "backend-secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: c.Value})
	secret, err := g.Session(req)
	require.NoError(t, err)
	assert.Equal(t, "backend-secret", secret)
}

func TestRequireWithoutCookie(t *testing.T) {
	called := false
	h := newTestGate().Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/single/add", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Error:S404 Need Cookies JWT as auth","cause":"No Cookies detected please login first"}`, rec.Body.String())
}

func TestRequireWithConfiguredMissingStatus(t *testing.T) {
	g := NewGate(&Builder{Secret: "s", MissingStatus: http.StatusUnauthorized})
	rec := httptest.NewRecorder()
	g.RequireFunc(func(w http.ResponseWriter, r *http.Request) {}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error:S401 Need Cookies JWT as auth")
}

func TestRequireRejectsForeignSignature(t *testing.T) {
	other := NewGate(&Builder{Secret: "other-secret"})
	value, err := other.Encode("backend-secret")
	require.NoError(t, err)

	called := false
	h := newTestGate().Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	req := httptest.NewRequest(http.MethodPatch, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRejectsExpiredCookie(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	old := NewGate(&Builder{Secret: "cookie-secret", Now: func() time.Time { return past }})
	value, err := old.Encode("backend-secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	_, err = newTestGate().Session(req)
	assert.Error(t, err)
}

func TestRequireRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sec": "x", "exp": time.Now().Add(time.Hour).Unix()})
	value, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	_, err = newTestGate().Session(req)
	assert.Error(t, err)
}

func TestRequireStoresSession(t *testing.T) {
	g := newTestGate()
	value, err := g.Encode("backend-secret")
	require.NoError(t, err)

	var got string
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "backend-secret", got)
}

func TestClear(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestGate().Clear(rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestFingerprint(t *testing.T) {
	assert.Len(t, Fingerprint("secret"), 12)
	assert.NotEqual(t, Fingerprint("a"), Fingerprint("b"))
}
