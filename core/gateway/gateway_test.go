package gateway

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sakamichi/core/logger"
)

func testRouter() *mux.Router {
	router := mux.NewRouter()
	logger.AddRequestID(router)
	router.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cookie, _ := r.Cookie("secretJwt")
		http.SetCookie(w, &http.Cookie{Name: "seen", Value: cookie.Value})
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, r.Method+" "+r.URL.Query().Get("q")+" "+string(body)+" "+logger.RequestIDFromContext(r.Context()))
	})
	router.HandleFunc("/api/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff})
	})
	return router
}

func TestHandle(t *testing.T) {
	g := New(testRouter())
	event := events.APIGatewayV2HTTPRequest{
		RawPath:         "/api/echo",
		RawQueryString:  "q=nogi",
		Cookies:         []string{"secretJwt=abc"},
		Body:            base64.StdEncoding.EncodeToString([]byte("hello")),
		IsBase64Encoded: true,
	}
	event.RequestContext.RequestID = "gw-1"
	event.RequestContext.HTTP.Method = http.MethodPost

	res, err := g.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "POST nogi hello gw-1", res.Body)
	assert.False(t, res.IsBase64Encoded)
	assert.Equal(t, "gw-1", res.Headers[logger.RequestIDHeader])
	require.Len(t, res.Cookies, 1)
	assert.Contains(t, res.Cookies[0], "seen=abc")
}

func TestHandleBinary(t *testing.T) {
	g := New(testRouter())
	event := events.APIGatewayV2HTTPRequest{RawPath: "/api/image"}
	event.RequestContext.HTTP.Method = http.MethodGet

	res, err := g.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, res.IsBase64Encoded)
	data, err := base64.StdEncoding.DecodeString(res.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
}

func TestHandleNotFound(t *testing.T) {
	g := New(testRouter())
	event := events.APIGatewayV2HTTPRequest{RawPath: "/nowhere"}
	event.RequestContext.HTTP.Method = http.MethodGet

	res, err := g.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHandleInvalidBody(t *testing.T) {
	g := New(testRouter())
	event := events.APIGatewayV2HTTPRequest{RawPath: "/api/echo", Body: "%%%", IsBase64Encoded: true}
	event.RequestContext.HTTP.Method = http.MethodPost

	res, err := g.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
