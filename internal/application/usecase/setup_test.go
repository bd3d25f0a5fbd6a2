package usecase

import (
	"bytes"
	"testing"

	"github.com/waste3d/coursehub/internal/infrastructure/repository"
	"github.com/waste3d/coursehub/internal/infrastructure/storage"
	"github.com/waste3d/coursehub/internal/pkg/logger"
	"github.com/waste3d/coursehub/internal/testutils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	store    *storage.LocalStore
	drafts   *testutils.MemoryDraftStore
	courses  *repository.CourseRepository
	videos   *repository.VideoRepository
	access   *AccessChecker
	ordering *LessonOrdering
	uc       *CourseUseCase
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()
	db := testutils.SetupTestDB(t)

	store, err := storage.NewLocalStore(t.TempDir(), log)
	require.NoError(t, err)

	courseRepo := repository.NewCourseRepository(db, nil)
	videoRepo := repository.NewVideoRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	access := NewAccessChecker(courseRepo, videoRepo, enrollmentRepo, log)
	ordering := NewLessonOrdering(db, courseRepo, videoRepo)
	drafts := testutils.NewMemoryDraftStore()

	return &testEnv{
		db:       db,
		store:    store,
		drafts:   drafts,
		courses:  courseRepo,
		videos:   videoRepo,
		access:   access,
		ordering: ordering,
		uc:       NewCourseUseCase(courseRepo, videoRepo, enrollmentRepo, access, ordering, drafts, store, log),
	}
}

func videoUpload(title string, size int) VideoInput {
	return VideoInput{
		Title: title,
		File:  Upload{Filename: title + ".mp4", Content: bytes.NewReader(testutils.FakeMP4(size))},
	}
}
