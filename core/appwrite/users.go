package appwrite

import (
	"context"
	"net/http"
	"net/url"
)

// Users is the users administration service
type Users struct {
	client *Client
}

// Get returns a user
func (u *Users) Get(ctx context.Context, userID string) (*User, error) {
	user := &User{}
	err := u.client.call(ctx, request{
		method: http.MethodGet,
		path:   "/users/" + url.PathEscape(userID),
	}, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateLabels replaces the labels of a user
func (u *Users) UpdateLabels(ctx context.Context, userID string, labels []string) (*User, error) {
	user := &User{}
	err := u.client.call(ctx, request{
		method: http.MethodPut,
		path:   "/users/" + url.PathEscape(userID) + "/labels",
		body:   map[string][]string{"labels": labels},
	}, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSession creates a session for a user. The returned session carries its secret.
func (u *Users) CreateSession(ctx context.Context, userID string) (*Session, error) {
	session := &Session{}
	err := u.client.call(ctx, request{
		method: http.MethodPost,
		path:   "/users/" + url.PathEscape(userID) + "/sessions",
	}, session)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Delete deletes a user
func (u *Users) Delete(ctx context.Context, userID string) error {
	return u.client.call(ctx, request{
		method: http.MethodDelete,
		path:   "/users/" + url.PathEscape(userID),
	}, nil)
}
