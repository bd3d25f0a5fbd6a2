package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/option"
)

// GCSStore keeps media in a single Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
}

func NewGCSStore(ctx context.Context, bucket string, log *logger.Logger, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("missing GCS_BUCKET")
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	log.Info("Object storage initialized", "bucket", bucket)
	return &GCSStore{client: client, bucket: bucket, log: log.With("service", "GCSStore")}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) Stat(ctx context.Context, key string) (*ObjectAttrs, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, domain.ErrMediaNotFound
		}
		return nil, fmt.Errorf("attrs %s: %w", key, err)
	}
	return &ObjectAttrs{Size: attrs.Size, ContentType: attrs.ContentType, Updated: attrs.Updated}, nil
}

// Open ties the reader to a cancelable context released by Close.
func (s *GCSStore) Open(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	ctx2, cancel := context.WithCancel(ctx)
	r, err := s.client.Bucket(s.bucket).Object(key).NewRangeReader(ctx2, offset, length)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, domain.ErrMediaNotFound
		}
		return nil, fmt.Errorf("range reader %s: %w", key, err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (s *GCSStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	br := bufio.NewReaderSize(r, 3072)
	head, _ := br.Peek(3072)

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = mimetype.Detect(head).String()
	return writeObject(w, br, cancel)
}

// writeObject finalizes the object only once the whole body is copied. A failed copy
// cancels the writer's context instead, which discards the partial upload.
func writeObject(w io.WriteCloser, r io.Reader, cancel context.CancelFunc) (int64, error) {
	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		return 0, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return n, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return domain.ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete GCS object %q: %w", key, err)
	}
	return nil
}
