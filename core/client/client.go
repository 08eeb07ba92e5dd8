/*
Package client provides easy and fast in-process access to the REST api

Instead of marshalling HTTP, the client talks directly to the mux router. This
makes it perfectly suited for unit tests. With NewWithURL the same client talks
to a running service over the network.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/access"
)

// Client provides easy access to the REST API.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	url        string
	ctx        context.Context

	defaultHeaders map[string]string
	cookies        []*http.Cookie
}

// NewWithRouter creates a client to make pseudo-REST requests to the backend,
// through the mux router
//
// WithSession() adds a session cookie to all requests.
// WithContext() specifies a different base context all together.
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to the backend
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	headers := map[string]string{key: value}
	for k, v := range c.defaultHeaders {
		if k != key {
			headers[k] = v
		}
	}
	c.defaultHeaders = headers
	return c
}

// WithCookie returns a new client which sends cookie with every request
func (c Client) WithCookie(cookie *http.Cookie) Client {
	c.cookies = append(append([]*http.Cookie{}, c.cookies...), cookie)
	return c
}

// WithSession returns a new client which sends value as session cookie
func (c Client) WithSession(value string) Client {
	return c.WithCookie(&http.Cookie{Name: access.CookieName, Value: value})
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the request context of the client
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Do sends a request and returns the status, the header and the body of the response.
// An error is only returned if the request could not be sent.
func (c Client) Do(method, path string, header map[string]string, body io.Reader) (int, http.Header, []byte, error) {
	if body == nil {
		body = http.NoBody
	}
	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, body)
	if err != nil {
		return http.StatusBadRequest, nil, nil, err
	}
	for key, value := range c.defaultHeaders {
		r.Header.Add(key, value)
	}
	for key, value := range header {
		r.Header.Set(key, value)
	}
	for _, cookie := range c.cookies {
		r.AddCookie(cookie)
	}

	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res := rec.Result()
		return res.StatusCode, res.Header, rec.Body.Bytes(), nil
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return http.StatusInternalServerError, nil, nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	return res.StatusCode, res.Header, resBody, err
}

// decode stores resBody into result. result can be a raw *[]byte or anything
// json can unmarshal into. result can be nil.
func decode(resBody []byte, result interface{}) error {
	if len(resBody) == 0 || result == nil {
		return nil
	}
	if raw, ok := result.(*[]byte); ok {
		*raw = resBody
		return nil
	}
	return json.Unmarshal(resBody, result)
}

func statusError(status int, resBody []byte) error {
	return fmt.Errorf("handler returned wrong status code: got %v want %v. Error: %s",
		status, http.StatusOK, strings.TrimSpace(string(resBody)))
}

// RawGet gets the resource from path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code.
//
// The path can be extend with query strings.
//
// result can be map[string]interface{} or a raw *[]byte.
// result can be nil.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	status, _, err := c.RawGetWithHeader(path, nil, result)
	return status, err
}

// RawGetWithHeader gets the resource from path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code and the header.
func (c Client) RawGetWithHeader(path string, header map[string]string, result interface{}) (int, http.Header, error) {
	status, resHeader, resBody, err := c.Do(http.MethodGet, path, header, nil)
	if err != nil {
		return status, resHeader, err
	}
	if status != http.StatusOK {
		return status, resHeader, statusError(status, resBody)
	}
	return status, resHeader, decode(resBody, result)
}

// RawPost posts body to path. body can also be a []byte, result can also be raw *[]byte.
// result can be nil.
//
// Expects http.StatusOK or http.StatusCreated as response, otherwise it will
// flag an error. Returns the actual http status code.
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	return c.send(http.MethodPost, path, body, result)
}

// RawPatch patches the resource at path. body can also be a []byte, result can also be raw *[]byte.
// result can be nil.
func (c Client) RawPatch(path string, body interface{}, result interface{}) (int, error) {
	return c.send(http.MethodPatch, path, body, result)
}

// RawDelete deletes the resource at path. result can be nil.
func (c Client) RawDelete(path string, result interface{}) (int, error) {
	status, _, resBody, err := c.Do(http.MethodDelete, path, nil, nil)
	if err != nil {
		return status, err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return status, statusError(status, resBody)
	}
	return status, decode(resBody, result)
}

func (c Client) send(method, path string, body interface{}, result interface{}) (int, error) {
	var err error
	j, ok := body.([]byte)
	if !ok {
		j, err = json.Marshal(body)
		if err != nil {
			return http.StatusBadRequest, err
		}
	}

	status, _, resBody, err := c.Do(method, path, map[string]string{"Content-Type": "application/json"}, bytes.NewBuffer(j))
	if err != nil {
		return status, err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusNoContent {
		return status, statusError(status, resBody)
	}
	return status, decode(resBody, result)
}

// Upload is a file of a multipart form
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Multipart sends fields and uploads as multipart form with method to path.
//
// Expects http.StatusOK as response, otherwise it will flag an error.
// result can be nil.
func (c Client) Multipart(method, path string, fields map[string]string, uploads []Upload, result interface{}) (int, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return http.StatusBadRequest, err
		}
	}
	for _, u := range uploads {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="%s"; filename="%s"`, u.Field, u.Filename)}
		contentType := u.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header["Content-Type"] = []string{contentType}
		fw, err := w.CreatePart(header)
		if err != nil {
			return http.StatusBadRequest, err
		}
		if _, err = fw.Write(u.Data); err != nil {
			return http.StatusBadRequest, err
		}
	}
	if err := w.Close(); err != nil {
		return http.StatusBadRequest, err
	}

	status, _, resBody, err := c.Do(method, path, map[string]string{"Content-Type": w.FormDataContentType()}, &b)
	if err != nil {
		return status, err
	}
	if status != http.StatusOK {
		return status, statusError(status, resBody)
	}
	return status, decode(resBody, result)
}
