package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// ChunkSize is the largest part the backend accepts in a single upload request.
// Larger files are sent in consecutive chunks.
const ChunkSize = 5 * 1024 * 1024

// InputFile is a file to upload
type InputFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// File is the stored file model
type File struct {
	ID       string   `json:"$id"`
	BucketID string   `json:"bucketId"`
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Size     int64    `json:"sizeOriginal"`
	Chunks   int      `json:"chunksTotal"`
	Perms    []string `json:"$permissions"`
}

// Storage is the bucket storage service
type Storage struct {
	client *Client
}

func filesPath(bucketID string) string {
	return fmt.Sprintf("/storage/buckets/%s/files", url.PathEscape(bucketID))
}

// CreateFile uploads f into bucket under fileID. Files above ChunkSize are uploaded in chunks.
func (s *Storage) CreateFile(ctx context.Context, bucketID, fileID string, f InputFile, permissions []string) (*File, error) {
	if f.Size <= ChunkSize {
		data, err := io.ReadAll(f.Reader)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", f.Name, err)
		}
		return s.uploadChunk(ctx, bucketID, fileID, f, permissions, data, nil)
	}

	var (
		file   *File
		offset int64
		buf    = make([]byte, ChunkSize)
	)
	for offset < f.Size {
		n, err := io.ReadFull(f.Reader, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, fmt.Errorf("cannot read %s: %w", f.Name, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("short read on %s at offset %d of %d", f.Name, offset, f.Size)
		}
		header := http.Header{}
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+int64(n)-1, f.Size))
		if offset > 0 {
			header.Set(headerUploadID, fileID)
		}
		file, err = s.uploadChunk(ctx, bucketID, fileID, f, permissions, buf[:n], header)
		if err != nil {
			return nil, err
		}
		offset += int64(n)
	}
	return file, nil
}

func (s *Storage) uploadChunk(ctx context.Context, bucketID, fileID string, f InputFile, permissions []string, data []byte, header http.Header) (*File, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := w.WriteField("fileId", fileID); err != nil {
		return nil, err
	}
	for _, p := range permissions {
		if err := w.WriteField("permissions[]", p); err != nil {
			return nil, err
		}
	}
	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	partHeader.Set("Content-Type", contentType)
	fw, err := w.CreatePart(partHeader)
	if err != nil {
		return nil, err
	}
	if _, err = fw.Write(data); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	file := &File{}
	err = s.client.call(ctx, request{
		method:      http.MethodPost,
		path:        filesPath(bucketID),
		body:        &b,
		contentType: w.FormDataContentType(),
		header:      header,
	}, file)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile deletes a file
func (s *Storage) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	return s.client.call(ctx, request{
		method: http.MethodDelete,
		path:   filesPath(bucketID) + "/" + url.PathEscape(fileID),
	}, nil)
}

// GetFileView returns the file content and its content type
func (s *Storage) GetFileView(ctx context.Context, bucketID, fileID string) ([]byte, string, error) {
	return s.client.fetch(ctx, request{
		method: http.MethodGet,
		path:   filesPath(bucketID) + "/" + url.PathEscape(fileID) + "/view",
	})
}

// GetFilePreview returns a preview rendition of an image file and its content type
func (s *Storage) GetFilePreview(ctx context.Context, bucketID, fileID string) ([]byte, string, error) {
	return s.client.fetch(ctx, request{
		method: http.MethodGet,
		path:   filesPath(bucketID) + "/" + url.PathEscape(fileID) + "/preview",
	})
}
