package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	router := mux.NewRouter()
	AddRequestID(router)

	var seen string
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestSessionFingerprintIsSerialized(t *testing.T) {
	ctx, _ := ContextWithRequestID(context.Background(), "req-1")
	ctx, rlog := ContextWithLoggerSession(ctx, "f00d")

	assert.Equal(t, "f00d", rlog.Data[sessionLoggerKey])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.JSONEq(t, `{"requestID":"req-1","session":"f00d"}`, string(SerializeLoggerContext(ctx)))
	assert.Equal(t, "{}", string(SerializeLoggerContext(context.Background())))
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}
