package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/httperr"
	"github.com/relabs-tech/sakamichi/core/logger"
)

// LocalFilesystem stores files below a base folder and serves them itself.
// It is meant for development without a backend bucket.
type LocalFilesystem struct {
	baseFolder string
	publicURL  string
}

// NewLocalFilesystem returns a new LocalFilesystem and registers its file route
// GET /files/{bucket}/{id} on router
func NewLocalFilesystem(router *mux.Router, baseFolder, publicURL string) (*LocalFilesystem, error) {
	if err := os.MkdirAll(baseFolder, 0o755); err != nil {
		return nil, err
	}
	f := &LocalFilesystem{baseFolder: baseFolder, publicURL: strings.TrimSuffix(publicURL, "/")}
	logger.Default().Debugln("local storage enabled in", baseFolder)
	logger.Default().Debugln("  handle file route: /files/{bucket}/{id} GET")
	router.HandleFunc("/files/{bucket}/{id}", f.handler).Methods(http.MethodGet)
	return f, nil
}

func (f *LocalFilesystem) path(bucket, id string) (string, error) {
	if strings.Contains(bucket, "..") || strings.Contains(id, "..") ||
		strings.ContainsAny(bucket, `/\`) || strings.ContainsAny(id, `/\`) {
		return "", httperr.Validation(".. not authorized in keys", nil)
	}
	return filepath.Join(f.baseFolder, bucket, id), nil
}

func (f *LocalFilesystem) handler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data, contentType, err := f.Preview(r.Context(), "", vars["bucket"], vars["id"])
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// Put writes f under a new unique id
func (f *LocalFilesystem) Put(ctx context.Context, session, bucket string, file File) (Object, error) {
	id := appwrite.UniqueID() + filepath.Ext(file.Name)
	p, err := f.path(bucket, id)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Object{}, err
	}
	out, err := os.Create(p)
	if err != nil {
		return Object{}, err
	}
	defer out.Close()
	if _, err := io.Copy(out, file.Reader); err != nil {
		return Object{}, fmt.Errorf("cannot write %s: %w", p, err)
	}
	return Object{ID: id, URL: fmt.Sprintf("%s/files/%s/%s", f.publicURL, bucket, id)}, nil
}

// Delete removes the file
func (f *LocalFilesystem) Delete(ctx context.Context, session, bucket, id string) error {
	p, err := f.path(bucket, id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return notFound(err)
		}
		return err
	}
	return nil
}

// Preview returns the file content
func (f *LocalFilesystem) Preview(ctx context.Context, session, bucket, id string) ([]byte, string, error) {
	p, err := f.path(bucket, id)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", notFound(err)
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(id))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func notFound(err error) error {
	return &httperr.Error{Kind: httperr.KindNotFound, Status: http.StatusNotFound,
		Message: "The requested file could not be found.", Cause: "storage_file_not_found", Err: err}
}
