package usecase

import (
	"context"
	"sync"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/infrastructure/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LessonOrdering keeps every course's video orders dense 1..N.
type LessonOrdering struct {
	db         *gorm.DB
	courseRepo *repository.CourseRepository
	videoRepo  *repository.VideoRepository
	locks      courseLocks
}

func NewLessonOrdering(db *gorm.DB, cr *repository.CourseRepository, vr *repository.VideoRepository) *LessonOrdering {
	return &LessonOrdering{
		db:         db,
		courseRepo: cr,
		videoRepo:  vr,
		locks:      courseLocks{locks: make(map[uuid.UUID]*courseLock)},
	}
}

// Append stores videos after the current last one, keeping the given order.
func (o *LessonOrdering) Append(ctx context.Context, courseID uuid.UUID, videos []*domain.Video) error {
	if len(videos) == 0 {
		return domain.ErrNoVideos
	}
	return o.inCourse(ctx, courseID, func(tx *gorm.DB, videoRepo *repository.VideoRepository) error {
		maxOrder, err := videoRepo.MaxOrder(ctx, courseID)
		if err != nil {
			return err
		}
		for i, v := range videos {
			v.CourseID = courseID
			v.Order = maxOrder + i + 1
		}
		return videoRepo.CreateBatch(ctx, videos)
	})
}

// Delete removes the video and closes the gap it leaves.
func (o *LessonOrdering) Delete(ctx context.Context, video *domain.Video) error {
	return o.inCourse(ctx, video.CourseID, func(tx *gorm.DB, videoRepo *repository.VideoRepository) error {
		if err := videoRepo.Delete(ctx, video.ID); err != nil {
			return err
		}
		remaining, err := videoRepo.ListByCourse(ctx, video.CourseID)
		if err != nil {
			return err
		}
		for i, v := range remaining {
			if v.Order == i+1 {
				continue
			}
			if err := videoRepo.SetOrder(ctx, v.ID, i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reorder gives the i-th id order i. ids must hold every video of the course exactly once.
func (o *LessonOrdering) Reorder(ctx context.Context, courseID uuid.UUID, ids []uuid.UUID) error {
	return o.inCourse(ctx, courseID, func(tx *gorm.DB, videoRepo *repository.VideoRepository) error {
		current, err := videoRepo.ListByCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if len(current) != len(ids) {
			return domain.ErrInvalidOrder
		}
		byID := make(map[uuid.UUID]int, len(current))
		for _, v := range current {
			byID[v.ID] = v.Order
		}
		seen := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return domain.ErrInvalidOrder
			}
			if _, dup := seen[id]; dup {
				return domain.ErrInvalidOrder
			}
			seen[id] = struct{}{}
		}

		for i, id := range ids {
			if byID[id] == i+1 {
				continue
			}
			if err := videoRepo.SetOrder(ctx, id, i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

// inCourse runs fn in a transaction holding the course lock. The order_version
// bump fails with ErrOrderConflict if another process changed the ordering meanwhile.
func (o *LessonOrdering) inCourse(ctx context.Context, courseID uuid.UUID, fn func(tx *gorm.DB, videoRepo *repository.VideoRepository) error) error {
	unlock := o.locks.lock(courseID)
	defer unlock()

	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := o.courseRepo.OrderVersion(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := o.courseRepo.BumpOrderVersion(ctx, tx, courseID, version); err != nil {
			return err
		}
		return fn(tx, o.videoRepo.WithTx(tx))
	})
}

type courseLock struct {
	mu   sync.Mutex
	refs int
}

type courseLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*courseLock
}

func (l *courseLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	cl, ok := l.locks[id]
	if !ok {
		cl = &courseLock{}
		l.locks[id] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
