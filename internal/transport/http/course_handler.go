package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/waste3d/coursehub/internal/application/usecase"
	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/media"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CourseHandler struct {
	courses   *usecase.CourseUseCase
	responder *media.Responder
	maxUpload int64
	log       *logger.Logger
}

func NewCourseHandler(courses *usecase.CourseUseCase, responder *media.Responder, maxUpload int64, log *logger.Logger) *CourseHandler {
	return &CourseHandler{courses: courses, responder: responder, maxUpload: maxUpload, log: log}
}

func streamURL(videoID uuid.UUID) string {
	return fmt.Sprintf("/api/v1/video/stream/%s", videoID)
}

// GET /api/v1/dashboard?search=
func (h *CourseHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	dashboard, err := h.courses.Dashboard(c, userID, c.Query("search"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GET /api/v1/course/:course_id
func (h *CourseHandler) GetOne(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrCourseNotFound)
	if !ok {
		return
	}
	detail, err := h.courses.GetCourse(c, userID, courseID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// POST /api/v1/course/draft
func (h *CourseHandler) StartDraft(c *gin.Context) {
	userID, ok := currentUser(c)
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

	thumbnail, err := optionalFile(form, "thumbnail", &opened)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	draft, err := h.courses.StartDraft(c, userID, firstValue(form.Value["title"]), firstValue(form.Value["description"]), thumbnail)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"draft_id": draft.ID, "draft": draft})
}

// POST /api/v1/course/draft/:draft_id/commit
func (h *CourseHandler) CommitDraft(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	draftID, ok := uuidParam(c, h.log, "draft_id", domain.ErrDraftNotFound)
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

	inputs, err := videoInputs(form, &opened)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	course, err := h.courses.CommitDraft(c, userID, draftID, inputs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// DELETE /api/v1/course/draft/:draft_id
func (h *CourseHandler) DiscardDraft(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	draftID, ok := uuidParam(c, h.log, "draft_id", domain.ErrDraftNotFound)
	if !ok {
		return
	}
	if err := h.courses.DiscardDraft(c, userID, draftID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/course/:course_id/edit
func (h *CourseHandler) Edit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrCourseNotFound)
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

	thumbnail, err := optionalFile(form, "thumbnail", &opened)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	course, err := h.courses.EditCourse(c, userID, courseID, firstValue(form.Value["title"]), firstValue(form.Value["description"]), thumbnail)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// POST /api/v1/course/:course_id/delete
func (h *CourseHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrCourseNotFound)
	if !ok {
		return
	}
	if err := h.courses.DeleteCourse(c, userID, courseID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

// POST /api/v1/course/:course_id/add-videos
func (h *CourseHandler) AddVideos(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrCourseNotFound)
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

	inputs, err := videoInputs(form, &opened)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	videos, err := h.courses.AddVideos(c, userID, courseID, inputs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"videos": videos})
}

type reorderReq struct {
	Order []string `json:"order"`
}

// POST /api/v1/course/:course_id/reorder
// Body is {"order": [...]} or a form field "order" holding the same JSON array.
func (h *CourseHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrCourseNotFound)
	if !ok {
		return
	}

	var req reorderReq
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, h.log, domain.ErrInvalidOrder)
			return
		}
	} else if err := json.Unmarshal([]byte(c.PostForm("order")), &req.Order); err != nil {
		respondError(c, h.log, domain.ErrInvalidOrder)
		return
	}

	ids := make([]uuid.UUID, 0, len(req.Order))
	for _, raw := range req.Order {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, h.log, domain.ErrInvalidOrder)
			return
		}
		ids = append(ids, id)
	}

	videos, err := h.courses.Reorder(c, userID, courseID, ids)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "videos": videos})
}

// GET /api/v1/course/:course_id/thumbnail
func (h *CourseHandler) Thumbnail(c *gin.Context) {
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrCourseNotFound)
	if !ok {
		return
	}
	key, err := h.courses.ThumbnailKey(c, courseID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	serveMedia(c, h.responder, h.log, key)
}

// POST /api/v1/enroll/:course_id
func (h *CourseHandler) Enroll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrCourseNotFound)
	if !ok {
		return
	}
	enrollment, err := h.courses.Enroll(c, userID, courseID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

// POST /api/v1/unenroll/:course_id
func (h *CourseHandler) Unenroll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrCourseNotFound)
	if !ok {
		return
	}
	if err := h.courses.Unenroll(c, userID, courseID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unenrolled"})
}

// GET /api/v1/watch/:course_id/:order
func (h *CourseHandler) Watch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, h.log, "course_id", domain.ErrVideoNotFound)
	if !ok {
		return
	}
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil || order < 1 {
		respondError(c, h.log, domain.ErrVideoNotFound)
		return
	}

	page, err := h.courses.Watch(c, userID, courseID, order)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"course":     page.Course,
		"video":      page.Video,
		"videos":     page.Videos,
		"previous":   page.Previous,
		"next":       page.Next,
		"access":     page.Access,
		"stream_url": streamURL(page.Video.ID),
	})
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
