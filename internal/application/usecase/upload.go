package usecase

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/waste3d/coursehub/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const sniffLen = 3072

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Content  io.Reader
}

// VideoInput is one lesson submitted with a course or added later.
type VideoInput struct {
	Title       string
	Description *string
	File        Upload
}

type sniffedUpload struct {
	reader io.Reader
	ext    string
	mime   string
}

// sniff detects the file type from its first bytes without consuming them.
func sniff(u Upload, allowed ...string) (*sniffedUpload, error) {
	if u.Content == nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	br := bufio.NewReaderSize(u.Content, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	if len(head) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, u.Filename)
	}

	mt := mimetype.Detect(head)
	if !hasTypePrefix(mt, allowed...) {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedMedia, u.Filename, mt.String())
	}

	ext := mt.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(u.Filename))
	}
	return &sniffedUpload{reader: br, ext: ext, mime: mt.String()}, nil
}

func hasTypePrefix(mt *mimetype.MIME, prefixes ...string) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, p := range prefixes {
			if strings.HasPrefix(m.String(), p) {
				return true
			}
		}
	}
	return false
}

func videoMediaKey(courseID uuid.UUID, ext string) string {
	return fmt.Sprintf("course_videos/%s/%s%s", courseID, uuid.NewString(), ext)
}

func thumbnailKey(ext string) string {
	return fmt.Sprintf("thumbnails/%s%s", uuid.NewString(), ext)
}

func validateTitle(title string, max int) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > max {
		return "", fmt.Errorf("%w: title is longer than %d characters", domain.ErrInvalidInput, max)
	}
	return title, nil
}
