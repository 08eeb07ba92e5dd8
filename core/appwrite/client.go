/*
Package appwrite is a small REST client for an Appwrite compatible backend-as-a-service.

It covers the parts of the platform the service uses: documents, storage buckets,
accounts and users. A Client is a cheap, request scoped handle that combines the
endpoint, the project and exactly one credential. Clients are created through a
Factory, which shares one *http.Client (and thereby one connection pool) between
all handles.
*/
package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Credential identifies what a Client authenticates with
type Credential int

// The three credential modes
const (
	CredentialNone Credential = iota
	CredentialKey
	CredentialSession
)

func (c Credential) String() string {
	switch c {
	case CredentialKey:
		return "key"
	case CredentialSession:
		return "session"
	default:
		return "none"
	}
}

const (
	headerProject        = "X-Appwrite-Project"
	headerKey            = "X-Appwrite-Key"
	headerSession        = "X-Appwrite-Session"
	headerResponseFormat = "X-Appwrite-Response-Format"
	headerUploadID       = "X-Appwrite-Id"

	responseFormat = "1.6.0"
)

// Builder is a builder helper for the Factory
type Builder struct {
	// Endpoint is the API endpoint including the version path, e.g. https://cloud.appwrite.io/v1
	Endpoint string
	// Project is the project id sent with every request
	Project string
	// Key is the admin API key used by Admin()
	Key string
	// HTTPClient is optional. Defaults to a client with a 20 seconds timeout.
	HTTPClient *http.Client
}

// Factory creates backend clients. It never performs I/O.
type Factory struct {
	endpoint   string
	project    string
	key        string
	httpClient *http.Client
}

// NewFactory returns a new factory
func NewFactory(b *Builder) *Factory {
	httpClient := b.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Factory{
		endpoint:   strings.TrimSuffix(b.Endpoint, "/"),
		project:    b.Project,
		key:        b.Key,
		httpClient: httpClient,
	}
}

// Public returns a client without credentials
func (f *Factory) Public() *Client {
	return f.client(CredentialNone, "")
}

// Admin returns a client authenticated with the admin API key
func (f *Factory) Admin() *Client {
	return f.client(CredentialKey, f.key)
}

// Session returns a client acting on behalf of the caller's session
func (f *Factory) Session(token string) *Client {
	return f.client(CredentialSession, token)
}

// Endpoint returns the configured endpoint without trailing slash
func (f *Factory) Endpoint() string {
	return f.endpoint
}

func (f *Factory) client(credential Credential, secret string) *Client {
	return &Client{
		endpoint:   f.endpoint,
		project:    f.project,
		credential: credential,
		secret:     secret,
		httpClient: f.httpClient,
	}
}

// Client is a request scoped handle to the backend
type Client struct {
	endpoint   string
	project    string
	credential Credential
	secret     string
	httpClient *http.Client
}

// Credential returns the credential mode of the client
func (c *Client) Credential() Credential {
	return c.credential
}

// Databases returns the document database service
func (c *Client) Databases() *Databases {
	return &Databases{client: c}
}

// Storage returns the bucket storage service
func (c *Client) Storage() *Storage {
	return &Storage{client: c}
}

// Account returns the account service of the current credential
func (c *Client) Account() *Account {
	return &Account{client: c}
}

// Users returns the users service. It requires the admin credential.
func (c *Client) Users() *Users {
	return &Users{client: c}
}

// FileViewURL returns the public view URL of a file
func (c *Client) FileViewURL(bucketID, fileID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s",
		c.endpoint, url.PathEscape(bucketID), url.PathEscape(fileID), url.QueryEscape(c.project))
}

// request describes one call against the REST API
type request struct {
	method      string
	path        string
	query       url.Values
	body        interface{}
	contentType string
	header      http.Header
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	u := c.endpoint + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	contentType := req.contentType
	switch b := req.body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		j, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal request body: %w", err)
		}
		body = bytes.NewReader(j)
		contentType = "application/json"
	}

	r, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, err
	}
	for key, values := range req.header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.Header.Set(headerProject, c.project)
	r.Header.Set(headerResponseFormat, responseFormat)
	switch c.credential {
	case CredentialKey:
		r.Header.Set(headerKey, c.secret)
	case CredentialSession:
		r.Header.Set(headerSession, c.secret)
	}
	return r, nil
}

// call performs req and decodes a successful JSON response into result. result may be nil.
func (c *Client) call(ctx context.Context, req request, result interface{}) error {
	body, _, err := c.fetch(ctx, req)
	if err != nil {
		return err
	}
	if result == nil || len(body) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(result); err != nil {
		return &MalformedError{Status: http.StatusOK, Body: truncate(body), Err: err}
	}
	return nil
}

// fetch performs req and returns the raw body and content type of a successful response
func (c *Client) fetch(ctx context.Context, req request) ([]byte, string, error) {
	r, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, "", err
	}
	res, err := c.httpClient.Do(r)
	if err != nil {
		return nil, "", fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%s %s: cannot read response: %w", req.method, req.path, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, "", decodeError(res.StatusCode, body)
	}
	return body, res.Header.Get("Content-Type"), nil
}
