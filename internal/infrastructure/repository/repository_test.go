package repository

import (
	"context"
	"testing"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/testutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "alice", Email: "alice@example.com", Password: "h"}))
	err := repo.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com", Password: "h"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	u, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = repo.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestEnrollmentRepository_Uniqueness(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	instructor := testutils.CreateTestUser(db)
	learner := testutils.CreateTestUser(db)
	course := testutils.CreateTestCourse(db, instructor)

	_, err := repo.Create(ctx, learner.ID, course.ID)
	require.NoError(t, err)

	_, err = repo.Create(ctx, learner.ID, course.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyEnrolled)

	ok, err := repo.Exists(ctx, learner.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := repo.CourseIDs(ctx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{course.ID}, ids)

	require.NoError(t, repo.Delete(ctx, learner.ID, course.ID))
	assert.ErrorIs(t, repo.Delete(ctx, learner.ID, course.ID), domain.ErrNotEnrolled)
}

func TestVideoRepository_MaxOrderAndList(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	instructor := testutils.CreateTestUser(db)
	course := testutils.CreateTestCourse(db, instructor)

	maxOrder, err := repo.MaxOrder(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, maxOrder)

	testutils.CreateTestVideo(db, course, "second", 2)
	testutils.CreateTestVideo(db, course, "first", 1)
	testutils.CreateTestVideo(db, course, "third", 3)

	maxOrder, err = repo.MaxOrder(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, maxOrder)

	videos, err := repo.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, videos, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{videos[0].Title, videos[1].Title, videos[2].Title})

	v, err := repo.GetByOrder(ctx, course.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "second", v.Title)

	_, err = repo.GetByOrder(ctx, course.ID, 4)
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)

	assert.ErrorIs(t, repo.SetOrder(ctx, uuid.New(), 1), domain.ErrVideoNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), domain.ErrVideoNotFound)
}

func TestCourseRepository_ListCountsAndSearch(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewCourseRepository(db, nil)
	ctx := context.Background()

	gopher := testutils.CreateTestUser(db, testutils.WithUsername("gopher"))
	other := testutils.CreateTestUser(db, testutils.WithUsername("someone"))

	goCourse := testutils.CreateTestCourse(db, gopher, testutils.WithTitle("Concurrency in Go"))
	pyCourse := testutils.CreateTestCourse(db, other, testutils.WithTitle("Python basics"), testutils.WithDescription("Learn SNAKES"))
	testutils.CreateTestVideo(db, goCourse, "a", 1)
	testutils.CreateTestVideo(db, goCourse, "b", 2)

	all, err := repo.List(ctx, CourseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	counts := map[uuid.UUID]int64{}
	for _, c := range all {
		counts[c.ID] = c.VideoCount
		require.NotNil(t, c.Instructor)
	}
	assert.Equal(t, int64(2), counts[goCourse.ID])
	assert.Equal(t, int64(0), counts[pyCourse.ID])

	byTitle, err := repo.List(ctx, CourseFilter{Search: "CONCURRENCY"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, goCourse.ID, byTitle[0].ID)

	byDescription, err := repo.List(ctx, CourseFilter{Search: "snakes"})
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, pyCourse.ID, byDescription[0].ID)

	byInstructor, err := repo.List(ctx, CourseFilter{Search: "Gopher"})
	require.NoError(t, err)
	require.Len(t, byInstructor, 1)
	assert.Equal(t, goCourse.ID, byInstructor[0].ID)

	none, err := repo.List(ctx, CourseFilter{IDs: []uuid.UUID{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	excluded, err := repo.List(ctx, CourseFilter{ExcludeIDs: []uuid.UUID{goCourse.ID}})
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, pyCourse.ID, excluded[0].ID)

	teaching, err := repo.List(ctx, CourseFilter{InstructorID: other.ID})
	require.NoError(t, err)
	require.Len(t, teaching, 1)
	assert.Equal(t, pyCourse.ID, teaching[0].ID)
}

func TestCourseRepository_DeleteCascades(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewCourseRepository(db, nil)
	ctx := context.Background()

	instructor := testutils.CreateTestUser(db)
	learner := testutils.CreateTestUser(db)
	course := testutils.CreateTestCourse(db, instructor)
	testutils.CreateTestVideo(db, course, "a", 1)
	testutils.CreateTestEnrollment(db, learner, course)

	require.NoError(t, repo.Delete(ctx, course.ID))

	_, err := repo.GetByID(ctx, course.ID)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)

	var videos, enrollments int64
	db.Model(&domain.Video{}).Where("course_id = ?", course.ID).Count(&videos)
	db.Model(&domain.Enrollment{}).Where("course_id = ?", course.ID).Count(&enrollments)
	assert.Zero(t, videos)
	assert.Zero(t, enrollments)

	assert.ErrorIs(t, repo.Delete(ctx, course.ID), domain.ErrCourseNotFound)
}

func TestCourseRepository_BumpOrderVersion(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewCourseRepository(db, nil)
	ctx := context.Background()

	course := testutils.CreateTestCourse(db, testutils.CreateTestUser(db))

	v, err := repo.OrderVersion(ctx, db, course.ID)
	require.NoError(t, err)
	require.NoError(t, repo.BumpOrderVersion(ctx, db, course.ID, v))

	assert.ErrorIs(t, repo.BumpOrderVersion(ctx, db, course.ID, v), domain.ErrOrderConflict)

	v2, err := repo.OrderVersion(ctx, db, course.ID)
	require.NoError(t, err)
	assert.Equal(t, v+1, v2)
}

func TestCourseRepository_GetByIDCache(t *testing.T) {
	db := testutils.SetupTestDB(t)
	mr, rdb := testutils.SetupTestRedis(t)
	repo := NewCourseRepository(db, rdb)
	ctx := context.Background()

	course := testutils.CreateTestCourse(db, testutils.CreateTestUser(db), testutils.WithTitle("Cached"))
	key := "course:detail:" + course.ID.String()

	got, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Title)
	require.True(t, mr.Exists(key))
	assert.Equal(t, courseDetailTTL, mr.TTL(key))

	// a write behind the repository's back stays invisible until invalidation
	require.NoError(t, db.Model(&domain.Course{}).Where("id = ?", course.ID).Update("title", "Stale").Error)
	got, err = repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Title)
	require.NotNil(t, got.Instructor)

	got.Title = "Fresh"
	require.NoError(t, repo.UpdateDetails(ctx, got))
	assert.False(t, mr.Exists(key))
	got, err = repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", got.Title)

	require.NoError(t, repo.Delete(ctx, course.ID))
	assert.False(t, mr.Exists(key))
	_, err = repo.GetByID(ctx, course.ID)
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestCourseRepository_GetByIDIgnoresCallerCancellation(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewCourseRepository(db, nil)
	course := testutils.CreateTestCourse(db, testutils.CreateTestUser(db))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, course.ID, got.ID)
}
