package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/httperr"
	"github.com/relabs-tech/sakamichi/core/logger"
)

// S3Configuration contains the configuration for the S3 driver
type S3Configuration struct {
	AWSRegion     string
	AccessID      string
	AccessKey     string
	AWSBucketName string
	// Endpoint is optional. When set, requests go to this S3 compatible server in path style.
	Endpoint string
	// KeyPrefix is prepended to every object key
	KeyPrefix string
	// PublicURL is the base URL under which objects are readable
	PublicURL string
	// HTTPClient is optional
	HTTPClient *http.Client
}

// S3 is the implementation of the Driver for AWS S3
type S3 struct {
	client      *s3.Client
	uploader    *manager.Uploader
	bucket      string
	baseKeyName string
	publicURL   string
}

// NewS3 returns a new S3
func NewS3(ctx context.Context, c S3Configuration) (*S3, error) {
	if c.AWSBucketName == "" {
		return nil, fmt.Errorf("AWSBucketName must not be empty")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(c.AWSRegion),
	}
	if c.AccessID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessID, c.AccessKey, "")))
	}
	if c.Endpoint != "" {
		opts = append(opts, config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: c.Endpoint, SigningRegion: c.AWSRegion, HostnameImmutable: true}, nil
			})))
	}
	if c.HTTPClient != nil {
		opts = append(opts, config.WithHTTPClient(c.HTTPClient))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = c.Endpoint != ""
	})
	logger.Default().Debugln("storage S3 enabled for bucket", c.AWSBucketName)
	return &S3{
		client:      client,
		uploader:    manager.NewUploader(client),
		bucket:      c.AWSBucketName,
		baseKeyName: c.KeyPrefix,
		publicURL:   strings.TrimSuffix(c.PublicURL, "/"),
	}, nil
}

func (s *S3) key(bucket, id string) string {
	return s.baseKeyName + bucket + "/" + id
}

// Put uploads f under a new unique id below the logical bucket
func (s *S3) Put(ctx context.Context, session, bucket string, f File) (Object, error) {
	id := appwrite.UniqueID()
	key := s.key(bucket, id)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f.Reader,
	}
	if f.ContentType != "" {
		input.ContentType = aws.String(f.ContentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return Object{}, fmt.Errorf("failed to upload %s: %w", key, classify(err))
	}
	logger.FromContext(ctx).Debugln("uploaded", key)
	return Object{ID: id, URL: s.publicURL + "/" + key}, nil
}

// Delete deletes the object
func (s *S3) Delete(ctx context.Context, session, bucket, id string) error {
	key := s.key(bucket, id)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logger.FromContext(ctx).Errorln("could not delete", key)
		return classify(err)
	}
	logger.FromContext(ctx).Infoln("deleted", key)
	return nil
}

// Preview returns the stored object as is
func (s *S3) Preview(ctx context.Context, session, bucket, id string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(bucket, id)),
	})
	if err != nil {
		return nil, "", classify(err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", err
	}
	return data, aws.ToString(out.ContentType), nil
}

func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return &httperr.Error{Kind: httperr.KindNotFound, Status: http.StatusNotFound,
				Message: "The requested file could not be found.", Cause: "storage_file_not_found", Err: err}
		case "AccessDenied":
			return &httperr.Error{Kind: httperr.KindAuth, Status: http.StatusForbidden,
				Message: "Access to the object store was denied.", Cause: "storage_access_denied", Err: err}
		}
	}
	return err
}
