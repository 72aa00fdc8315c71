package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// maxAssetBytes caps a single asset read; assets are text tables and templates.
const maxAssetBytes = 4 << 20

type GCSFetcher struct {
	client *gcs.Client
	bucket string
	prefix string
}

func NewGCSFetcher(ctx context.Context, bucket, prefix string) (*GCSFetcher, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSFetcher{client: c, bucket: bucket, prefix: prefix}, nil
}

func (f *GCSFetcher) Close() error { return f.client.Close() }

func (f *GCSFetcher) Fetch(ctx context.Context, objectName string) ([]byte, error) {
	r, err := f.client.Bucket(f.bucket).Object(f.prefix + objectName).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s/%s: %w", f.bucket, f.prefix+objectName, err)
	}
	defer r.Close()

	return io.ReadAll(io.LimitReader(r, maxAssetBytes))
}
