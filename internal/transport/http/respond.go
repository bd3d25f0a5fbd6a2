package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/media"
	"github.com/waste3d/coursehub/internal/middleware"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrVideoNotFound),
		errors.Is(err, domain.ErrMediaNotFound),
		errors.Is(err, domain.ErrDraftNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNotEnrolled):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrNoVideos),
		errors.Is(err, domain.ErrUnsupportedMedia):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyEnrolled),
		errors.Is(err, domain.ErrOrderConflict),
		errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, media.ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps domain errors to statuses. Unknown errors are logged and hidden.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// respondBindError renders validator failures as a field -> message map.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fieldMessage(fe)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

// uuidParam reads a path id; a malformed id is reported as notFound.
func uuidParam(c *gin.Context, log *logger.Logger, name string, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, log, notFound)
		return uuid.Nil, false
	}
	return id, true
}
