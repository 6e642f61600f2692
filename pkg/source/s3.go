package source

import (
	"context"
	"io"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by an ObjectStore when a bucket or key does not exist.
var ErrNotFound = errors.New("object not found")

type (
	// ObjectStore reads schema files from a bucket.
	ObjectStore interface {
		GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
		// ListObjects returns every key under prefix, recursively.
		ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
	}

	// S3Config describes how to reach an S3 compatible endpoint.
	S3Config struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Region    string
		UseSSL    bool
	}

	// S3Store is an ObjectStore backed by the MinIO client. It works with any
	// S3 compatible service.
	S3Store struct {
		client *miniogo.Client
	}
)

var _ ObjectStore = (*S3Store)(nil)

// NewS3Store creates an S3Store. No request is made until the store is used.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create s3 client")
	}

	return &S3Store{client: client}, nil
}

// GetObject opens the object at key. The object is stat'ed first so a missing
// key fails here rather than on the first read.
func (s *S3Store) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, bucket, key)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapError(err, bucket, key)
	}

	return obj, nil
}

// ListObjects returns every key under prefix.
func (s *S3Store) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, miniogo.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, mapError(obj.Err, bucket, prefix)
		}

		keys = append(keys, obj.Key)
	}

	return keys, nil
}

func mapError(err error, bucket, key string) error {
	resp := miniogo.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return errors.Wrapf(ErrNotFound, "%s/%s", bucket, key)
	}

	return errors.Wrapf(err, "s3 request failed for %s/%s", bucket, key)
}
