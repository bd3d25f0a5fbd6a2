package storage

import (
	"context"
	"io"
	"time"
)

// MediaStore holds uploaded videos and thumbnails addressed by key.
// Missing objects are reported as domain.ErrMediaNotFound.
type MediaStore interface {
	Stat(ctx context.Context, key string) (*ObjectAttrs, error)
	// Open returns a reader positioned at offset. A negative length reads to the end.
	Open(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Delete(ctx context.Context, key string) error
}

type ObjectAttrs struct {
	Size        int64
	ContentType string
	Updated     time.Time
}

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (l *limitedReadCloser) Close() error {
	return l.closer.Close()
}

type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}
