package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrCourseNotFound = errors.New("course not found")
	ErrVideoNotFound  = errors.New("video not found")
	ErrMediaNotFound  = errors.New("media not found")
	ErrDraftNotFound  = errors.New("course draft not found")

	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrNotEnrolled     = errors.New("not enrolled in this course")

	ErrForbidden = errors.New("only the course instructor can do this")

	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidOrder     = errors.New("order must list every video of the course exactly once")
	ErrOrderConflict    = errors.New("course videos were reordered concurrently, retry")
	ErrNoVideos         = errors.New("at least one video is required")
	ErrUnsupportedMedia = errors.New("unsupported file type")
)
