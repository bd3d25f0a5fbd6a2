package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/infrastructure/repository"
	"github.com/waste3d/coursehub/internal/infrastructure/storage"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/google/uuid"
)

const (
	courseTitleMax = 255
	videoTitleMax  = 200
)

// DraftStore keeps the first step of course creation between requests.
type DraftStore interface {
	Save(ctx context.Context, draft *domain.CourseDraft) error
	Get(ctx context.Context, id uuid.UUID) (*domain.CourseDraft, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Dashboard struct {
	Search    string          `json:"search"`
	Enrolled  []domain.Course `json:"enrolled"`
	Available []domain.Course `json:"available"`
	Teaching  []domain.Course `json:"teaching"`
}

type CourseDetail struct {
	Course *domain.Course `json:"course"`
	Access string         `json:"access"`
}

type WatchPage struct {
	Course   *domain.Course `json:"course"`
	Video    *domain.Video  `json:"video"`
	Videos   []domain.Video `json:"videos"`
	Previous *domain.Video  `json:"previous,omitempty"`
	Next     *domain.Video  `json:"next,omitempty"`
	Access   string         `json:"access"`
}

type CourseUseCase struct {
	courseRepo     *repository.CourseRepository
	videoRepo      *repository.VideoRepository
	enrollmentRepo *repository.EnrollmentRepository
	access         *AccessChecker
	ordering       *LessonOrdering
	drafts         DraftStore
	media          storage.MediaStore
	log            *logger.Logger
}

func NewCourseUseCase(
	cr *repository.CourseRepository,
	vr *repository.VideoRepository,
	er *repository.EnrollmentRepository,
	ac *AccessChecker,
	lo *LessonOrdering,
	ds DraftStore,
	ms storage.MediaStore,
	log *logger.Logger,
) *CourseUseCase {
	return &CourseUseCase{
		courseRepo:     cr,
		videoRepo:      vr,
		enrollmentRepo: er,
		access:         ac,
		ordering:       lo,
		drafts:         ds,
		media:          ms,
		log:            log.With("service", "CourseUseCase"),
	}
}

func (uc *CourseUseCase) Dashboard(ctx context.Context, userID uuid.UUID, search string) (*Dashboard, error) {
	enrolledIDs, err := uc.enrollmentRepo.CourseIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enrolledIDs == nil {
		enrolledIDs = []uuid.UUID{}
	}
	search = strings.TrimSpace(search)

	enrolled, err := uc.courseRepo.List(ctx, repository.CourseFilter{Search: search, IDs: enrolledIDs})
	if err != nil {
		return nil, err
	}
	available, err := uc.courseRepo.List(ctx, repository.CourseFilter{Search: search, ExcludeIDs: enrolledIDs})
	if err != nil {
		return nil, err
	}
	teaching, err := uc.courseRepo.List(ctx, repository.CourseFilter{Search: search, InstructorID: userID})
	if err != nil {
		return nil, err
	}

	return &Dashboard{Search: search, Enrolled: enrolled, Available: available, Teaching: teaching}, nil
}

// GetCourse returns the course with its videos only when the user may watch them.
func (uc *CourseUseCase) GetCourse(ctx context.Context, userID, courseID uuid.UUID) (*CourseDetail, error) {
	course, err := uc.courseRepo.GetWithVideos(ctx, courseID)
	if err != nil {
		return nil, err
	}
	access := uc.access.Authorize(ctx, userID, course)
	if !access.CanWatch() {
		course.Videos = nil
	}
	return &CourseDetail{Course: course, Access: access.String()}, nil
}

func (uc *CourseUseCase) StartDraft(ctx context.Context, userID uuid.UUID, title, description string, thumbnail *Upload) (*domain.CourseDraft, error) {
	title, err := validateTitle(title, courseTitleMax)
	if err != nil {
		return nil, err
	}
	draft := &domain.CourseDraft{
		ID:           uuid.New(),
		InstructorID: userID,
		Title:        title,
		Description:  strings.TrimSpace(description),
		CreatedAt:    time.Now(),
	}
	if draft.Description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}
	if thumbnail != nil {
		key, err := uc.saveThumbnail(ctx, *thumbnail)
		if err != nil {
			return nil, err
		}
		draft.ThumbnailKey = key
	}
	if err := uc.drafts.Save(ctx, draft); err != nil {
		uc.removeMedia(ctx, draft.ThumbnailKey)
		return nil, err
	}
	return draft, nil
}

// CommitDraft creates the course with videos ordered 1..N as submitted.
func (uc *CourseUseCase) CommitDraft(ctx context.Context, userID, draftID uuid.UUID, inputs []VideoInput) (*domain.Course, error) {
	draft, err := uc.ownDraft(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, domain.ErrNoVideos
	}

	course := &domain.Course{
		ID:           uuid.New(),
		Title:        draft.Title,
		Description:  draft.Description,
		ThumbnailKey: draft.ThumbnailKey,
		InstructorID: userID,
	}
	videos, err := uc.storeVideos(ctx, course.ID, inputs)
	if err != nil {
		return nil, err
	}
	if err := uc.courseRepo.Create(ctx, course); err != nil {
		uc.removeVideoMedia(ctx, videos)
		return nil, err
	}
	if err := uc.ordering.Append(ctx, course.ID, videos); err != nil {
		uc.removeVideoMedia(ctx, videos)
		if derr := uc.courseRepo.Delete(ctx, course.ID); derr != nil {
			uc.log.Error("rollback course failed", "course_id", course.ID, "error", derr)
		}
		return nil, err
	}

	if err := uc.drafts.Delete(ctx, draftID); err != nil {
		uc.log.Warn("draft cleanup failed", "draft_id", draftID, "error", err)
	}
	uc.log.Info("course created", "course_id", course.ID, "instructor_id", userID, "videos", len(videos))
	return uc.courseRepo.GetWithVideos(ctx, course.ID)
}

func (uc *CourseUseCase) DiscardDraft(ctx context.Context, userID, draftID uuid.UUID) error {
	draft, err := uc.ownDraft(ctx, userID, draftID)
	if err != nil {
		return err
	}
	if err := uc.drafts.Delete(ctx, draftID); err != nil {
		return err
	}
	uc.removeMedia(ctx, draft.ThumbnailKey)
	return nil
}

func (uc *CourseUseCase) ownDraft(ctx context.Context, userID, draftID uuid.UUID) (*domain.CourseDraft, error) {
	draft, err := uc.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.InstructorID != userID {
		return nil, domain.ErrDraftNotFound
	}
	return draft, nil
}

func (uc *CourseUseCase) EditCourse(ctx context.Context, userID, courseID uuid.UUID, title, description string, thumbnail *Upload) (*domain.Course, error) {
	course, err := uc.access.RequireInstructor(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if course.Title, err = validateTitle(title, courseTitleMax); err != nil {
		return nil, err
	}
	if course.Description = strings.TrimSpace(description); course.Description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}

	oldThumb := course.ThumbnailKey
	if thumbnail != nil {
		key, err := uc.saveThumbnail(ctx, *thumbnail)
		if err != nil {
			return nil, err
		}
		course.ThumbnailKey = key
	}
	if err := uc.courseRepo.UpdateDetails(ctx, course); err != nil {
		if course.ThumbnailKey != oldThumb {
			uc.removeMedia(ctx, course.ThumbnailKey)
		}
		return nil, err
	}
	if course.ThumbnailKey != oldThumb {
		uc.removeMedia(ctx, oldThumb)
	}
	return uc.courseRepo.GetWithVideos(ctx, courseID)
}

// DeleteCourse removes the course rows first; stored media is removed best effort.
func (uc *CourseUseCase) DeleteCourse(ctx context.Context, userID, courseID uuid.UUID) error {
	course, err := uc.access.RequireInstructor(ctx, userID, courseID)
	if err != nil {
		return err
	}
	videos, err := uc.videoRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if err := uc.courseRepo.Delete(ctx, courseID); err != nil {
		return err
	}
	for _, v := range videos {
		uc.removeMedia(ctx, v.MediaKey)
	}
	uc.removeMedia(ctx, course.ThumbnailKey)
	uc.log.Info("course deleted", "course_id", courseID, "videos", len(videos))
	return nil
}

func (uc *CourseUseCase) AddVideos(ctx context.Context, userID, courseID uuid.UUID, inputs []VideoInput) ([]*domain.Video, error) {
	if _, err := uc.access.RequireInstructor(ctx, userID, courseID); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, domain.ErrNoVideos
	}
	videos, err := uc.storeVideos(ctx, courseID, inputs)
	if err != nil {
		return nil, err
	}
	if err := uc.ordering.Append(ctx, courseID, videos); err != nil {
		uc.removeVideoMedia(ctx, videos)
		return nil, err
	}
	return videos, nil
}

// EditVideo replaces title and, when given, description and file. A nil description keeps
// the stored one; an empty one clears it.
func (uc *CourseUseCase) EditVideo(ctx context.Context, userID, videoID uuid.UUID, title string, description *string, file *Upload) (*domain.Video, error) {
	video, _, err := uc.access.RequireVideoInstructor(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if video.Title, err = validateTitle(title, videoTitleMax); err != nil {
		return nil, err
	}
	if description != nil {
		video.Description = normalizeDescription(description)
	}

	oldKey := video.MediaKey
	if file != nil {
		key, err := uc.saveVideoFile(ctx, video.CourseID, *file)
		if err != nil {
			return nil, err
		}
		video.MediaKey = key
	}
	if err := uc.videoRepo.UpdateDetails(ctx, video); err != nil {
		if video.MediaKey != oldKey {
			uc.removeMedia(ctx, video.MediaKey)
		}
		return nil, err
	}
	if video.MediaKey != oldKey {
		uc.removeMedia(ctx, oldKey)
	}
	return video, nil
}

// DeleteVideo removes the lesson and renumbers the rest of the course.
func (uc *CourseUseCase) DeleteVideo(ctx context.Context, userID, videoID uuid.UUID) (uuid.UUID, error) {
	video, course, err := uc.access.RequireVideoInstructor(ctx, userID, videoID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := uc.ordering.Delete(ctx, video); err != nil {
		return uuid.Nil, err
	}
	uc.removeMedia(ctx, video.MediaKey)
	return course.ID, nil
}

func (uc *CourseUseCase) Reorder(ctx context.Context, userID, courseID uuid.UUID, ids []uuid.UUID) ([]domain.Video, error) {
	if _, err := uc.access.RequireInstructor(ctx, userID, courseID); err != nil {
		return nil, err
	}
	if err := uc.ordering.Reorder(ctx, courseID, ids); err != nil {
		return nil, err
	}
	return uc.videoRepo.ListByCourse(ctx, courseID)
}

func (uc *CourseUseCase) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*domain.Enrollment, error) {
	if _, err := uc.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return uc.enrollmentRepo.Create(ctx, userID, courseID)
}

func (uc *CourseUseCase) Unenroll(ctx context.Context, userID, courseID uuid.UUID) error {
	if _, err := uc.courseRepo.GetByID(ctx, courseID); err != nil {
		return err
	}
	return uc.enrollmentRepo.Delete(ctx, userID, courseID)
}

// Watch resolves the lesson at position order with its neighbours.
func (uc *CourseUseCase) Watch(ctx context.Context, userID, courseID uuid.UUID, order int) (*WatchPage, error) {
	course, err := uc.courseRepo.GetWithVideos(ctx, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, err
	}
	access := uc.access.Authorize(ctx, userID, course)
	if !access.CanWatch() {
		return nil, domain.ErrVideoNotFound
	}

	videos := course.Videos
	course.Videos = nil
	for i := range videos {
		if videos[i].Order != order {
			continue
		}
		page := &WatchPage{Course: course, Video: &videos[i], Videos: videos, Access: access.String()}
		if i > 0 {
			page.Previous = &videos[i-1]
		}
		if i+1 < len(videos) {
			page.Next = &videos[i+1]
		}
		return page, nil
	}
	return nil, domain.ErrVideoNotFound
}

// StreamKey returns the media key of a video the user may watch.
func (uc *CourseUseCase) StreamKey(ctx context.Context, userID, videoID uuid.UUID) (string, error) {
	video, err := uc.access.RequireViewer(ctx, userID, videoID)
	if err != nil {
		return "", err
	}
	return video.MediaKey, nil
}

func (uc *CourseUseCase) ThumbnailKey(ctx context.Context, courseID uuid.UUID) (string, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	if course.ThumbnailKey == "" {
		return "", domain.ErrMediaNotFound
	}
	return course.ThumbnailKey, nil
}

// storeVideos validates every input before writing any file.
func (uc *CourseUseCase) storeVideos(ctx context.Context, courseID uuid.UUID, inputs []VideoInput) ([]*domain.Video, error) {
	sniffed := make([]*sniffedUpload, len(inputs))
	titles := make([]string, len(inputs))
	for i, in := range inputs {
		title, err := validateTitle(in.Title, videoTitleMax)
		if err != nil {
			return nil, fmt.Errorf("video %d: %w", i+1, err)
		}
		s, err := sniff(in.File, "video/", "audio/")
		if err != nil {
			return nil, fmt.Errorf("video %d: %w", i+1, err)
		}
		titles[i] = title
		sniffed[i] = s
	}

	videos := make([]*domain.Video, 0, len(inputs))
	for i, s := range sniffed {
		key := videoMediaKey(courseID, s.ext)
		if _, err := uc.media.Save(ctx, key, s.reader); err != nil {
			uc.removeVideoMedia(ctx, videos)
			return nil, fmt.Errorf("store video %d: %w", i+1, err)
		}
		videos = append(videos, &domain.Video{
			ID:          uuid.New(),
			CourseID:    courseID,
			Title:       titles[i],
			Description: normalizeDescription(inputs[i].Description),
			MediaKey:    key,
		})
	}
	return videos, nil
}

func (uc *CourseUseCase) saveVideoFile(ctx context.Context, courseID uuid.UUID, file Upload) (string, error) {
	s, err := sniff(file, "video/", "audio/")
	if err != nil {
		return "", err
	}
	key := videoMediaKey(courseID, s.ext)
	if _, err := uc.media.Save(ctx, key, s.reader); err != nil {
		return "", fmt.Errorf("store video: %w", err)
	}
	return key, nil
}

func (uc *CourseUseCase) saveThumbnail(ctx context.Context, file Upload) (string, error) {
	s, err := sniff(file, "image/")
	if err != nil {
		return "", err
	}
	key := thumbnailKey(s.ext)
	if _, err := uc.media.Save(ctx, key, s.reader); err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return key, nil
}

func (uc *CourseUseCase) removeVideoMedia(ctx context.Context, videos []*domain.Video) {
	for _, v := range videos {
		uc.removeMedia(ctx, v.MediaKey)
	}
}

func (uc *CourseUseCase) removeMedia(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := uc.media.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrMediaNotFound) {
		uc.log.Warn("media cleanup failed", "key", key, "error", err)
	}
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
