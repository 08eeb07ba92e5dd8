// Package gateway serves the router as an AWS Lambda function behind an API
// Gateway HTTP API (payload format 2.0).
package gateway

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/relabs-tech/sakamichi/core/logger"
)

// Handler converts API Gateway events into requests for a http.Handler
type Handler struct {
	handler http.Handler
}

// New returns a new Handler for h
func New(h http.Handler) *Handler {
	return &Handler{handler: h}
}

// Start runs the Lambda event loop. It does not return.
func (g *Handler) Start() {
	lambda.Start(g.Handle)
}

// Handle serves a single API Gateway event
func (g *Handler) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	r, err := g.request(ctx, event)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("cannot convert API Gateway event")
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: `{"message":"invalid request","cause":"bad_event"}`}, nil
	}

	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, r)
	return response(rec), nil
}

func (g *Handler) request(ctx context.Context, event events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, err
		}
		body = string(decoded)
	}

	path := event.RawPath
	if path == "" {
		path = event.RequestContext.HTTP.Path
	}
	if event.RawQueryString != "" {
		path += "?" + event.RawQueryString
	}

	// the gateway request id becomes the request id of all log entries
	if requestID := event.RequestContext.RequestID; requestID != "" {
		ctx, _ = logger.ContextWithRequestID(ctx, requestID)
	}

	r, err := http.NewRequestWithContext(ctx, event.RequestContext.HTTP.Method, path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, value := range event.Headers {
		r.Header.Set(key, value)
	}
	if event.RequestContext.RequestID != "" && r.Header.Get(logger.RequestIDHeader) == "" {
		r.Header.Set(logger.RequestIDHeader, event.RequestContext.RequestID)
	}
	if len(event.Cookies) > 0 {
		r.Header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}
	r.RemoteAddr = event.RequestContext.HTTP.SourceIP
	return r, nil
}

func response(rec *httptest.ResponseRecorder) events.APIGatewayV2HTTPResponse {
	res := rec.Result()
	out := events.APIGatewayV2HTTPResponse{
		StatusCode: res.StatusCode,
		Headers:    map[string]string{},
	}
	for key, values := range res.Header {
		if key == "Set-Cookie" {
			out.Cookies = append(out.Cookies, values...)
			continue
		}
		out.Headers[key] = strings.Join(values, ",")
	}

	body := rec.Body.Bytes()
	contentType := res.Header.Get("Content-Type")
	if utf8.Valid(body) && res.Header.Get("Content-Encoding") == "" && !strings.HasPrefix(contentType, "image/") {
		out.Body = string(body)
	} else {
		out.Body = base64.StdEncoding.EncodeToString(body)
		out.IsBase64Encoded = true
	}
	return out
}
