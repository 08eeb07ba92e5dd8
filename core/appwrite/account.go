package appwrite

import (
	"context"
	"net/http"
	"net/url"
)

// User is the user model
type User struct {
	ID     string   `json:"$id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Labels []string `json:"labels"`
}

// Session is the session model. Secret is only filled when the session was
// created with the admin credential.
type Session struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
	Expire string `json:"expire"`
}

// Account is the account service of the client's credential
type Account struct {
	client *Client
}

// Create registers a new account
func (a *Account) Create(ctx context.Context, userID, email, password, name string) (*User, error) {
	user := &User{}
	err := a.client.call(ctx, request{
		method: http.MethodPost,
		path:   "/account",
		body: map[string]string{
			"userId":   userID,
			"email":    email,
			"password": password,
			"name":     name,
		},
	}, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateEmailPasswordSession logs in with email and password
func (a *Account) CreateEmailPasswordSession(ctx context.Context, email, password string) (*Session, error) {
	session := &Session{}
	err := a.client.call(ctx, request{
		method: http.MethodPost,
		path:   "/account/sessions/email",
		body: map[string]string{
			"email":    email,
			"password": password,
		},
	}, session)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession deletes a session of the current account. Use "current" for the
// session the client is authenticated with.
func (a *Account) DeleteSession(ctx context.Context, sessionID string) error {
	return a.client.call(ctx, request{
		method: http.MethodDelete,
		path:   "/account/sessions/" + url.PathEscape(sessionID),
	}, nil)
}
