package handlers

import (
	"errors"
	"net/http"

	"github.com/waste3d/coursehub/internal/application/usecase"
	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/media"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type VideoHandler struct {
	courses   *usecase.CourseUseCase
	responder *media.Responder
	maxUpload int64
	log       *logger.Logger
}

func NewVideoHandler(courses *usecase.CourseUseCase, responder *media.Responder, maxUpload int64, log *logger.Logger) *VideoHandler {
	return &VideoHandler{courses: courses, responder: responder, maxUpload: maxUpload, log: log}
}

// POST /api/v1/video/:video_id/edit
func (h *VideoHandler) Edit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := uuidParam(c, h.log, "video_id", domain.ErrVideoNotFound)
	if !ok {
		return
	}
	limitBody(c, h.maxUpload)
	form, err := parseMultipart(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var opened openedFiles
	defer opened.Close()

	file, err := optionalFile(form, "file", &opened)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var description *string
	if values, ok := form.Value["description"]; ok && len(values) > 0 {
		description = &values[0]
	}

	video, err := h.courses.EditVideo(c, userID, videoID, firstValue(form.Value["title"]), description, file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// POST /api/v1/video/:video_id/delete
func (h *VideoHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := uuidParam(c, h.log, "video_id", domain.ErrVideoNotFound)
	if !ok {
		return
	}
	courseID, err := h.courses.DeleteVideo(c, userID, videoID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video deleted", "course_id": courseID})
}

// GET /api/v1/video/stream/:video_id
// Unauthorized and missing videos both answer 404.
func (h *VideoHandler) Stream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := uuidParam(c, h.log, "video_id", domain.ErrVideoNotFound)
	if !ok {
		return
	}
	key, err := h.courses.StreamKey(c, userID, videoID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	serveMedia(c, h.responder, h.log, key)
}

func serveMedia(c *gin.Context, responder *media.Responder, log *logger.Logger, key string) {
	err := responder.Serve(c.Request.Context(), c.Writer, c.GetHeader("Range"), key)
	switch {
	case err == nil:
	case errors.Is(err, media.ErrRangeNotSatisfiable):
		c.Abort()
	case c.Writer.Written():
		log.Warn("stream failed after headers were sent", "key", key, "error", err)
		c.Abort()
	default:
		respondError(c, log, err)
	}
}
