package usecase

import (
	"context"
	"errors"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/infrastructure/repository"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/google/uuid"
)

type AccessChecker struct {
	courseRepo     *repository.CourseRepository
	videoRepo      *repository.VideoRepository
	enrollmentRepo *repository.EnrollmentRepository
	log            *logger.Logger
}

func NewAccessChecker(
	cr *repository.CourseRepository,
	vr *repository.VideoRepository,
	er *repository.EnrollmentRepository,
	log *logger.Logger,
) *AccessChecker {
	return &AccessChecker{
		courseRepo:     cr,
		videoRepo:      vr,
		enrollmentRepo: er,
		log:            log.With("service", "AccessChecker"),
	}
}

// Authorize never fails. A lookup error is logged and treated as no access.
func (a *AccessChecker) Authorize(ctx context.Context, userID uuid.UUID, course *domain.Course) domain.Access {
	if course == nil || userID == uuid.Nil {
		return domain.AccessDenied
	}
	if course.InstructorID == userID {
		return domain.AccessInstructor
	}
	enrolled, err := a.enrollmentRepo.Exists(ctx, userID, course.ID)
	if err != nil {
		a.log.Error("enrollment lookup failed", "user_id", userID, "course_id", course.ID, "error", err)
		return domain.AccessDenied
	}
	if enrolled {
		return domain.AccessEnrolled
	}
	return domain.AccessDenied
}

// RequireInstructor loads the course and checks write access.
func (a *AccessChecker) RequireInstructor(ctx context.Context, userID, courseID uuid.UUID) (*domain.Course, error) {
	course, err := a.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !a.Authorize(ctx, userID, course).CanManage() {
		return nil, domain.ErrForbidden
	}
	return course, nil
}

// RequireVideoInstructor is RequireInstructor for the course owning videoID.
func (a *AccessChecker) RequireVideoInstructor(ctx context.Context, userID, videoID uuid.UUID) (*domain.Video, *domain.Course, error) {
	video, err := a.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}
	course, err := a.RequireInstructor(ctx, userID, video.CourseID)
	if err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			return nil, nil, domain.ErrVideoNotFound
		}
		return nil, nil, err
	}
	return video, course, nil
}

// RequireViewer returns the video if the user may watch it. Denied access looks
// exactly like a missing video.
func (a *AccessChecker) RequireViewer(ctx context.Context, userID, videoID uuid.UUID) (*domain.Video, error) {
	video, err := a.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	course, err := a.courseRepo.GetByID(ctx, video.CourseID)
	if err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, err
	}
	if !a.Authorize(ctx, userID, course).CanWatch() {
		return nil, domain.ErrVideoNotFound
	}
	return video, nil
}
