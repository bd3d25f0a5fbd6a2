package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/waste3d/coursehub/internal/application/usecase"
	"github.com/waste3d/coursehub/internal/domain"

	"github.com/gin-gonic/gin"
)

// openedFiles tracks multipart files opened for one request.
type openedFiles []io.Closer

func (o openedFiles) Close() {
	for _, f := range o {
		_ = f.Close()
	}
}

func limitBody(c *gin.Context, maxBytes int64) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
}

// parseMultipart maps an oversized body to a validation error.
func parseMultipart(c *gin.Context) (*multipart.Form, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrInvalidInput, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return form, nil
}

// formValues accepts both "name" and "name[]" keys.
func formValues(form *multipart.Form, name string) []string {
	if v := form.Value[name]; len(v) > 0 {
		return v
	}
	return form.Value[name+"[]"]
}

func formFiles(form *multipart.Form, name string) []*multipart.FileHeader {
	if f := form.File[name]; len(f) > 0 {
		return f
	}
	return form.File[name+"[]"]
}

// optionalFile opens the single file under name, nil if none was sent.
func optionalFile(form *multipart.Form, name string, opened *openedFiles) (*usecase.Upload, error) {
	files := formFiles(form, name)
	if len(files) == 0 {
		return nil, nil
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, err
	}
	*opened = append(*opened, f)
	return &usecase.Upload{Filename: files[0].Filename, Content: f}, nil
}

// videoInputs pairs title[i], description[i] and file[i].
func videoInputs(form *multipart.Form, opened *openedFiles) ([]usecase.VideoInput, error) {
	titles := formValues(form, "title")
	descriptions := formValues(form, "description")
	files := formFiles(form, "file")

	if len(files) == 0 {
		return nil, domain.ErrNoVideos
	}
	if len(titles) != len(files) {
		return nil, fmt.Errorf("%w: got %d titles for %d files", domain.ErrInvalidInput, len(titles), len(files))
	}

	inputs := make([]usecase.VideoInput, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		*opened = append(*opened, f)

		inputs[i] = usecase.VideoInput{
			Title: titles[i],
			File:  usecase.Upload{Filename: fh.Filename, Content: f},
		}
		if i < len(descriptions) {
			d := descriptions[i]
			inputs[i].Description = &d
		}
	}
	return inputs, nil
}
