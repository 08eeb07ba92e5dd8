package appwrite_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/appwrite/appwritetest"
)

func TestFactoryCredentials(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":0,"documents":[]}`))
	}))
	defer server.Close()

	factory := appwrite.NewFactory(&appwrite.Builder{Endpoint: server.URL + "/v1/", Project: "p", Key: "k"})
	ctx := context.Background()

	_, err := factory.Public().Databases().ListDocuments(ctx, "db", "col")
	require.NoError(t, err)
	assert.Equal(t, "p", got.Get("X-Appwrite-Project"))
	assert.Empty(t, got.Get("X-Appwrite-Key"))
	assert.Empty(t, got.Get("X-Appwrite-Session"))

	_, err = factory.Admin().Databases().ListDocuments(ctx, "db", "col")
	require.NoError(t, err)
	assert.Equal(t, "k", got.Get("X-Appwrite-Key"))
	assert.Empty(t, got.Get("X-Appwrite-Session"))

	_, err = factory.Session("secret").Databases().ListDocuments(ctx, "db", "col")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Get("X-Appwrite-Session"))
	assert.Empty(t, got.Get("X-Appwrite-Key"))

	assert.Equal(t, appwrite.CredentialNone, factory.Public().Credential())
	assert.Equal(t, appwrite.CredentialKey, factory.Admin().Credential())
	assert.Equal(t, appwrite.CredentialSession, factory.Session("x").Credential())
}

func TestFactoryDoesNoIO(t *testing.T) {
	fake := appwritetest.NewServer(t)
	factory := fake.Factory()
	factory.Public()
	factory.Admin()
	factory.Session("token")
	assert.Empty(t, fake.Calls())
}

func TestDocumentLifecycle(t *testing.T) {
	fake := appwritetest.NewServer(t)
	user := "u1"
	fake.SeedUser(user, "a@example.com", "password123", "A")
	db := fake.Factory().Session(fake.SessionFor(user)).Databases()
	ctx := context.Background()

	id := appwrite.UniqueID()
	created, err := db.CreateDocument(ctx, "db", "songs", id, map[string]interface{}{"title": "Sayonara", "track": 3},
		[]string{appwrite.PermissionRead(appwrite.RoleAny()), appwrite.PermissionWrite(appwrite.RoleLabel("admin"))})
	require.NoError(t, err)
	assert.Equal(t, id, created.ID())
	assert.Equal(t, []interface{}{`read("any")`, `write("label:admin")`}, created["$permissions"])

	got, err := db.GetDocument(ctx, "db", "songs", id)
	require.NoError(t, err)
	assert.Equal(t, "Sayonara", got["title"])

	updated, err := db.UpdateDocument(ctx, "db", "songs", id, map[string]interface{}{"title": "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", updated["title"])
	assert.Equal(t, "3", fmt.Sprint(updated["track"]))

	list, err := db.ListDocuments(ctx, "db", "songs", appwrite.Equal("title", "Hello"), appwrite.Select("title"))
	require.NoError(t, err)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "Hello", list.Documents[0]["title"])
	assert.NotContains(t, list.Documents[0], "track")

	require.NoError(t, db.DeleteDocument(ctx, "db", "songs", id))
	_, err = db.GetDocument(ctx, "db", "songs", id)
	var backendErr *appwrite.Error
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, 404, backendErr.Code)
	assert.Equal(t, "document_not_found", backendErr.Type)
}

func TestQueries(t *testing.T) {
	assert.Equal(t, appwrite.Query(`{"method":"equal","attribute":"group","values":["nogizaka"]}`), appwrite.Equal("group", "nogizaka"))
	assert.Equal(t, appwrite.Query(`{"method":"orderDesc","attribute":"releaseDate"}`), appwrite.OrderDesc("releaseDate"))
	assert.Equal(t, appwrite.Query(`{"method":"select","values":["name","$id"]}`), appwrite.Select("name", "$id"))

	q, err := appwrite.ParseQuery(string(appwrite.OrderAsc("releaseDate")))
	require.NoError(t, err)
	assert.Equal(t, "orderAsc", q.Method)
	assert.Equal(t, "releaseDate", q.Attribute)
}

func TestUniqueID(t *testing.T) {
	a, b := appwrite.UniqueID(), appwrite.UniqueID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
}

func TestMalformedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	factory := appwrite.NewFactory(&appwrite.Builder{Endpoint: server.URL, Project: "p"})
	_, err := factory.Public().Databases().GetDocument(context.Background(), "db", "col", "id")
	var malformed *appwrite.MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, http.StatusBadGateway, malformed.Status)
	assert.Contains(t, malformed.Body, "oops")
}

func TestChunkedUpload(t *testing.T) {
	fake := appwritetest.NewServer(t)
	fake.SeedUser("u1", "a@example.com", "password123", "A")
	storage := fake.Factory().Session(fake.SessionFor("u1")).Storage()

	data := bytes.Repeat([]byte("x"), appwrite.ChunkSize+1024)
	f, err := storage.CreateFile(context.Background(), "images", "big", appwrite.InputFile{
		Name:        "big.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "big", f.ID)
	assert.Len(t, fake.CallsTo("files.create"), 2)

	stored, ok := fake.File("images", "big")
	require.True(t, ok)
	assert.Equal(t, data, stored)

	view, contentType, err := storage.GetFileView(context.Background(), "images", "big")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, len(data), len(view))
}

func TestAccountAndUsers(t *testing.T) {
	fake := appwritetest.NewServer(t)
	factory := fake.Factory()
	ctx := context.Background()

	user, err := factory.Public().Account().Create(ctx, "admin1", "admin@example.com", "password123", "Admin")
	require.NoError(t, err)
	assert.Equal(t, "admin1", user.ID)

	_, err = factory.Public().Users().UpdateLabels(ctx, user.ID, []string{"admin"})
	assert.Error(t, err, "users service needs the admin key")

	labelled, err := factory.Admin().Users().UpdateLabels(ctx, user.ID, []string{"admin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, labelled.Labels)

	session, err := factory.Public().Account().CreateEmailPasswordSession(ctx, "admin@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)

	minted, err := factory.Admin().Users().CreateSession(ctx, session.UserID)
	require.NoError(t, err)
	require.NotEmpty(t, minted.Secret)
	assert.True(t, fake.SessionValid(minted.Secret))

	require.NoError(t, factory.Session(minted.Secret).Account().DeleteSession(ctx, "current"))
	assert.False(t, fake.SessionValid(minted.Secret))

	require.NoError(t, factory.Admin().Users().Delete(ctx, user.ID))
	_, err = factory.Admin().Users().Get(ctx, user.ID)
	assert.Error(t, err)
}

func TestFileViewURL(t *testing.T) {
	factory := appwrite.NewFactory(&appwrite.Builder{Endpoint: "https://cloud.example.com/v1", Project: "proj"})
	u := factory.Public().FileViewURL("bucket", "file")
	assert.Equal(t, "https://cloud.example.com/v1/storage/buckets/bucket/files/file/view?project=proj", u)
	assert.True(t, strings.HasPrefix(u, factory.Endpoint()))
}
