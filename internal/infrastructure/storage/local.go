package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/pkg/logger"
)

// LocalStore keeps media under a root directory on disk.
type LocalStore struct {
	root string
	log  *logger.Logger
}

func NewLocalStore(root string, log *logger.Logger) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalStore{root: abs, log: log.With("service", "LocalStore")}, nil
}

// path resolves key inside root and rejects anything escaping it.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", domain.ErrMediaNotFound
	}
	p := filepath.Join(s.root, clean)
	if !strings.HasPrefix(p, s.root+string(os.PathSeparator)) {
		return "", domain.ErrMediaNotFound
	}
	return p, nil
}

func (s *LocalStore) Stat(_ context.Context, key string) (*ObjectAttrs, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrMediaNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, domain.ErrMediaNotFound
	}
	return &ObjectAttrs{Size: info.Size(), Updated: info.ModTime()}, nil
}

func (s *LocalStore) Open(_ context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrMediaNotFound
		}
		return nil, err
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if length < 0 {
		return f, nil
	}
	return &limitedReadCloser{Reader: io.LimitReader(f, length), closer: f}, nil
}

// Save writes to a temp file next to the target and renames it into place.
func (s *LocalStore) Save(_ context.Context, key string, r io.Reader) (int64, error) {
	p, err := s.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrMediaNotFound
		}
		return err
	}
	return nil
}
