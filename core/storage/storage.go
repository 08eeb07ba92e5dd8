// Package storage stores uploaded images outside of the document database.
// There are three backends: the backend-as-a-service buckets, AWS S3 (or any S3
// compatible server) and a local filesystem for development.
package storage

import (
	"context"
	"io"
)

// File is an image to store
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Object is a stored file
type Object struct {
	ID  string
	URL string
}

// Driver defines the interface for the storage service.
//
// session is the caller's backend session. Drivers that do not store into the
// backend ignore it.
type Driver interface {
	Put(ctx context.Context, session, bucket string, f File) (Object, error)
	Delete(ctx context.Context, session, bucket, id string) error
	Preview(ctx context.Context, session, bucket, id string) (data []byte, contentType string, err error)
}
