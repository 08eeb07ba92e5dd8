package storage

import (
	"context"

	"github.com/relabs-tech/sakamichi/core/appwrite"
)

// Appwrite stores files in the buckets of the backend, acting with the caller's session
type Appwrite struct {
	factory *appwrite.Factory
}

// NewAppwrite returns a new Appwrite driver
func NewAppwrite(factory *appwrite.Factory) *Appwrite {
	return &Appwrite{factory: factory}
}

func (a *Appwrite) client(session string) *appwrite.Client {
	if session == "" {
		return a.factory.Public()
	}
	return a.factory.Session(session)
}

// Put uploads f under a new unique id. The file is world readable and writable by admins.
func (a *Appwrite) Put(ctx context.Context, session, bucket string, f File) (Object, error) {
	client := a.client(session)
	file, err := client.Storage().CreateFile(ctx, bucket, appwrite.UniqueID(), appwrite.InputFile{
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		Reader:      f.Reader,
	}, []string{
		appwrite.PermissionRead(appwrite.RoleAny()),
		appwrite.PermissionWrite(appwrite.RoleLabel("admin")),
	})
	if err != nil {
		return Object{}, err
	}
	return Object{ID: file.ID, URL: client.FileViewURL(bucket, file.ID)}, nil
}

// Delete deletes a file
func (a *Appwrite) Delete(ctx context.Context, session, bucket, id string) error {
	return a.client(session).Storage().DeleteFile(ctx, bucket, id)
}

// Preview returns the preview rendition of an image
func (a *Appwrite) Preview(ctx context.Context, session, bucket, id string) ([]byte, string, error) {
	return a.client(session).Storage().GetFilePreview(ctx, bucket, id)
}
