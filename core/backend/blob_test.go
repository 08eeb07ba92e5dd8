package backend

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/client"
)

var jpeg = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func image(name string) []client.Upload {
	return []client.Upload{{Field: "image", Filename: name, ContentType: "image/jpeg", Data: jpeg}}
}

// fileID extracts the file id from a file view url
func fileID(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	parts := strings.Split(u.Path, "/")
	for i := range parts {
		if parts[i] == "files" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	t.Fatal("no file id in", raw)
	return ""
}

func TestCreateGalleryProfile(t *testing.T) {
	tb := newTestBackend(t, false)
	tb.fake.SeedDocument(databaseID, "members", appwrite.Document{"$id": "m1", "name": "Endo Sakura"})

	var created struct {
		Gallery appwrite.Document `json:"gallery"`
	}
	status, err := tb.admin.Multipart(http.MethodPost, "/api/member/gallery/add/m1",
		map[string]string{"name": "photobook", "date": "2023-06-01", "isProfile": "true"}, image("sakura.jpg"), &created)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "m1", created.Gallery["galleryOfMember"])
	assert.Equal(t, true, created.Gallery["isProfile"])
	assert.Equal(t, "photobook", created.Gallery["name"])

	imageURL, _ := created.Gallery["url"].(string)
	require.NotEmpty(t, imageURL)
	stored, ok := tb.fake.File("production", fileID(t, imageURL))
	require.True(t, ok)
	assert.Equal(t, jpeg, stored)
	assert.Equal(t, 1, tb.fake.FileCount("production"))

	member, ok := tb.fake.Document(databaseID, "members", "m1")
	require.True(t, ok)
	assert.Equal(t, imageURL, member["profilePic"])
	assert.Empty(t, tb.reporter.all())

	for _, call := range tb.fake.CallsTo("files.create") {
		assert.Equal(t, appwrite.CredentialSession, call.Credential)
	}
}

func TestCreateGalleryWithoutProfile(t *testing.T) {
	tb := newTestBackend(t, false)
	tb.fake.SeedDocument(databaseID, "members", appwrite.Document{"$id": "m1", "name": "Endo Sakura", "profilePic": "old"})

	var created struct {
		Gallery appwrite.Document `json:"gallery"`
	}
	_, err := tb.admin.Multipart(http.MethodPost, "/api/member/gallery/add/m1",
		map[string]string{"name": "handshake", "isProfile": "false"}, image("sakura.jpg"), &created)
	require.NoError(t, err)
	assert.Equal(t, false, created.Gallery["isProfile"])

	member, _ := tb.fake.Document(databaseID, "members", "m1")
	assert.Equal(t, "old", member["profilePic"])
	assert.Empty(t, tb.fake.CallsTo("documents.update"))
}

func TestCreateGalleryProfileFailure(t *testing.T) {
	tb := newTestBackend(t, true)

	status, err := tb.admin.Multipart(http.MethodPost, "/api/member/gallery/add/unknown",
		map[string]string{"name": "photobook", "isProfile": "true"}, image("sakura.jpg"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	// the gallery document and its file stay, the member was never updated
	docs := tb.fake.Documents(databaseID, "gallery")
	require.Len(t, docs, 1)
	assert.Equal(t, 1, tb.fake.FileCount("production"))

	effects := tb.reporter.all()
	require.Len(t, effects, 1)
	assert.Equal(t, "document", effects[0].Kind)
	assert.Equal(t, "gallery", effects[0].Resource)
	assert.Equal(t, docs[0].ID(), effects[0].ID)
	assert.False(t, effects[0].Compensated)
}

func TestCreateBlobOrphanedFile(t *testing.T) {
	for _, compensate := range []bool{false, true} {
		tb := newTestBackend(t, compensate)
		tb.fake.Fail("documents.create", http.StatusInternalServerError, "general_unknown", "Server Error")

		status, _, body, err := tb.admin.Do(http.MethodPost, "/api/single/covers/add/s1", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, status, "a request without form: %s", body)

		status, err = tb.admin.Multipart(http.MethodPost, "/api/single/covers/add/s1",
			map[string]string{"name": "type A", "numberCover": "1"}, image("a.jpg"), nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, status)

		effects := tb.reporter.all()
		require.Len(t, effects, 1)
		assert.Equal(t, "file", effects[0].Kind)
		assert.Equal(t, "production", effects[0].Resource)
		assert.Equal(t, compensate, effects[0].Compensated)
		assert.NotEmpty(t, effects[0].RequestID)

		if compensate {
			assert.Equal(t, 0, tb.fake.FileCount("production"))
			assert.Len(t, tb.fake.CallsTo("files.delete"), 1)
		} else {
			assert.Equal(t, 1, tb.fake.FileCount("production"))
			assert.Empty(t, tb.fake.CallsTo("files.delete"))
		}
	}
}

func TestCreateBlobValidation(t *testing.T) {
	tb := newTestBackend(t, false)

	status, err := tb.admin.Multipart(http.MethodPost, "/api/single/covers/add/s1",
		map[string]string{"name": "type A", "numberCover": "1"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, err.Error(), "image is required")

	status, err = tb.admin.Multipart(http.MethodPost, "/api/single/covers/add/s1",
		map[string]string{"name": "type A", "numberCover": "first"}, image("a.jpg"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, err.Error(), "numberCover must be a number")

	assert.Empty(t, tb.fake.CallsTo("files.create"))
	assert.Empty(t, tb.fake.CallsTo("documents.create"))
}

func TestCovers(t *testing.T) {
	tb := newTestBackend(t, false)

	var created struct {
		Cover appwrite.Document `json:"cover"`
	}
	_, err := tb.admin.Multipart(http.MethodPost, "/api/single/covers/add/s1",
		map[string]string{"name": "type A", "numberCover": "1", "singleId": "s2"}, image("a.jpg"), &created)
	require.NoError(t, err)
	assert.Equal(t, "s1", created.Cover["singleId"])
	assert.Equal(t, float64(1), created.Cover["numberCover"])
	firstURL := created.Cover["url"]
	require.NotEmpty(t, firstURL)

	var updated struct {
		Success bool              `json:"success"`
		Cover   appwrite.Document `json:"updatedCover"`
	}
	_, err = tb.admin.Multipart(http.MethodPatch, "/api/single/covers/update/"+created.Cover.ID(),
		map[string]string{"name": "type B", "singleId": "s2"}, nil, &updated)
	require.NoError(t, err)
	assert.True(t, updated.Success)
	assert.Equal(t, "type B", updated.Cover["name"])
	assert.Equal(t, "s2", updated.Cover["singleId"])
	assert.Equal(t, firstURL, updated.Cover["url"])
	assert.Equal(t, 1, tb.fake.FileCount("production"))

	_, err = tb.admin.Multipart(http.MethodPatch, "/api/single/covers/update/"+created.Cover.ID(),
		map[string]string{"numberCover": "2.5"}, image("b.jpg"), &updated)
	require.NoError(t, err)
	assert.True(t, updated.Success)
	assert.Equal(t, 2.5, updated.Cover["numberCover"])
	assert.NotEqual(t, firstURL, updated.Cover["url"])
	assert.Equal(t, 2, tb.fake.FileCount("production"))

	var list struct {
		Cover appwrite.DocumentList `json:"cover"`
	}
	_, err = tb.anonymous.RawGet("/api/single/covers/s2", &list)
	require.NoError(t, err)
	require.Len(t, list.Cover.Documents, 1)

	var deleted map[string]interface{}
	_, err = tb.admin.RawDelete("/api/single/covers/delete/"+created.Cover.ID(), &deleted)
	require.NoError(t, err)
	assert.Equal(t, DeletedMessage, deleted["message"])
	assert.Empty(t, tb.fake.Documents(databaseID, "covers"))
	assert.Equal(t, 2, tb.fake.FileCount("production"), "stored files are kept")
}

func TestGalleryPartial(t *testing.T) {
	tb := newTestBackend(t, false)
	tb.fake.SeedDocument(databaseID, "gallery", appwrite.Document{"$id": "g1", "isProfile": true, "galleryOfMember": "m1"})
	tb.fake.SeedDocument(databaseID, "gallery", appwrite.Document{"$id": "g2", "isProfile": false, "galleryOfMember": "m1"})
	tb.fake.SeedDocument(databaseID, "gallery", appwrite.Document{"$id": "g3", "isProfile": true, "galleryOfMember": "m2"})

	var partial struct {
		Gallery appwrite.DocumentList `json:"gallery"`
	}
	_, err := tb.anonymous.RawGet("/api/member/gallery/partial", &partial)
	require.NoError(t, err)
	require.Len(t, partial.Gallery.Documents, 2)
	assert.Equal(t, "g1", partial.Gallery.Documents[0].ID())
	assert.Equal(t, "g3", partial.Gallery.Documents[1].ID())

	var list struct {
		Gallery appwrite.DocumentList `json:"gallery"`
	}
	_, err = tb.anonymous.RawGet("/api/member/gallery/m1", &list)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Gallery.Total)
}

func TestSingleImage(t *testing.T) {
	tb := newTestBackend(t, false)

	var uploaded struct {
		URL string `json:"urlImage"`
	}
	_, err := tb.admin.Multipart(http.MethodPost, "/api/single/image",
		map[string]string{"filename": "artwork.jpg"}, image("upload.jpg"), &uploaded)
	require.NoError(t, err)
	assert.Contains(t, uploaded.URL, "/storage/buckets/single-images/files/")
	assert.Equal(t, 0, tb.fake.FileCount("production"))
	assert.Equal(t, 1, tb.fake.FileCount("single-images"))

	var data []byte
	_, header, err := tb.admin.RawGetWithHeader("/api/single/image/"+fileID(t, uploaded.URL), nil, &data)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", header.Get("Content-Type"))
	assert.Equal(t, jpeg, data)

	status, _, err := tb.admin.RawGetWithHeader("/api/single/image/unknown", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}
