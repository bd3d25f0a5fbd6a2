package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/waste3d/coursehub/internal/infrastructure/storage"
	"github.com/waste3d/coursehub/internal/pkg/logger"
)

const (
	ChunkSize          = 8192
	DefaultContentType = "video/mp4"
)

type Responder struct {
	store storage.MediaStore
	log   *logger.Logger
}

func NewResponder(store storage.MediaStore, log *logger.Logger) *Responder {
	return &Responder{store: store, log: log.With("service", "MediaResponder")}
}

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ContentTypeFor guesses the type from the key's extension.
func ContentTypeFor(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ext == "" {
		return DefaultContentType
	}
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}

// Serve writes the object at key honoring rangeHeader. It returns domain.ErrMediaNotFound
// before writing anything when the object is missing. An unsatisfiable range is answered
// here with 416 and ErrRangeNotSatisfiable is returned for logging only.
func (r *Responder) Serve(ctx context.Context, w http.ResponseWriter, rangeHeader, key string) error {
	attrs, err := r.store.Stat(ctx, key)
	if err != nil {
		return err
	}
	size := attrs.Size

	rng, err := ResolveRange(rangeHeader, size)
	if errors.Is(err, ErrRangeNotSatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return err
	}

	h := w.Header()
	h.Set("Content-Type", ContentTypeFor(key))
	h.Set("Accept-Ranges", "bytes")

	if size == 0 {
		h.Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
		return nil
	}

	src, err := r.store.Open(ctx, key, rng.Start, rng.Length())
	if err != nil {
		h.Del("Content-Type")
		h.Del("Accept-Ranges")
		return err
	}
	defer src.Close()

	h.Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	if rng.Partial {
		h.Set("Content-Range", rng.ContentRange(size))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	written, err := copyChunks(ctx, w, src, rng.Length())
	if err != nil {
		r.log.Debug("stream interrupted", "key", key, "written", written, "error", err)
	}
	return nil
}

// copyChunks sends at most remaining bytes from src to w in ChunkSize pieces.
func copyChunks(ctx context.Context, w io.Writer, src io.Reader, remaining int64) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		read, rerr := src.Read(buf[:n])
		if read > 0 {
			if _, werr := w.Write(buf[:read]); werr != nil {
				return written, werr
			}
			written += int64(read)
			remaining -= int64(read)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
	return written, nil
}
