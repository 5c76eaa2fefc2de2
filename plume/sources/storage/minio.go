package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"plume/plume/config"
)

// ImageStore fronts the image host. The backend never proxies image bytes:
// it hands the browser time-limited signed parameters and the browser
// uploads directly.
type ImageStore struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// UploadAuth is the signed-parameter set returned to the client. Token is
// the object key the upload must use, Expire the unix expiry of the grant,
// Signature the host's signature over the grant, URL the upload target.
type UploadAuth struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
	URL       string `json:"url"`
}

func NewImageStore(cfg config.Config) (*ImageStore, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
		Region: cfg.MinIORegion,
	})
	if err != nil {
		return nil, err
	}
	return &ImageStore{client: client, bucket: cfg.MinIOBucket, ttl: cfg.UploadTTL}, nil
}

// EnsureBucket creates the bucket if it does not exist yet. Called once at
// startup, not per request.
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// UploadAuth presigns a PUT for a fresh object key. Presigning is local
// computation; no round trip to the host.
func (s *ImageStore) UploadAuth(ctx context.Context) (UploadAuth, error) {
	key := path.Join("uploads", uuid.New().String())

	signed, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.ttl)
	if err != nil {
		return UploadAuth{}, fmt.Errorf("presign upload: %w", err)
	}

	return UploadAuth{
		Token:     key,
		Expire:    time.Now().Add(s.ttl).Unix(),
		Signature: signed.Query().Get("X-Amz-Signature"),
		URL:       signed.String(),
	}, nil
}
