package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/waste3d/coursehub/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const courseDetailTTL = 1 * time.Hour

// CourseFilter narrows List. Nil IDs means no restriction; an empty non-nil IDs matches nothing.
type CourseFilter struct {
	Search       string
	IDs          []uuid.UUID
	ExcludeIDs   []uuid.UUID
	InstructorID uuid.UUID
}

type CourseRepository struct {
	db    *gorm.DB
	rdb   *redis.Client
	group singleflight.Group
}

// NewCourseRepository builds the repository. rdb may be nil, which disables caching.
func NewCourseRepository(db *gorm.DB, rdb *redis.Client) *CourseRepository {
	return &CourseRepository{db: db, rdb: rdb}
}

func courseDetailKey(id uuid.UUID) string {
	return "course:detail:" + id.String()
}

// GetByID reads a course (with instructor, without videos) through the redis cache.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	key := courseDetailKey(id)

	if r.rdb != nil {
		if val, err := r.rdb.Get(ctx, key).Result(); err == nil {
			var c domain.Course
			if json.Unmarshal([]byte(val), &c) == nil {
				return &c, nil
			}
		}
	}

	// The load is shared by every caller waiting on key, so one caller going away
	// must not cancel it for the rest.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		var course domain.Course
		err := r.db.WithContext(loadCtx).Preload("Instructor").First(&course, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrCourseNotFound
			}
			return nil, err
		}
		if r.rdb != nil {
			if data, err := json.Marshal(course); err == nil {
				r.rdb.Set(loadCtx, key, data, courseDetailTTL)
			}
		}
		return &course, nil
	})
	if err != nil {
		return nil, err
	}
	course := *v.(*domain.Course)
	return &course, nil
}

// GetWithVideos loads the course and its videos ordered by position. Not cached,
// ordering changes would otherwise need their own invalidation.
func (r *CourseRepository) GetWithVideos(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order(orderAsc)
		}).
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	course.VideoCount = int64(len(course.Videos))
	return &course, nil
}

// List returns courses with their video counts, newest first.
func (r *CourseRepository) List(ctx context.Context, f CourseFilter) ([]domain.Course, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []domain.Course{}, nil
	}

	query := r.db.WithContext(ctx).Model(&domain.Course{}).
		Select("courses.*, (SELECT COUNT(*) FROM videos WHERE videos.course_id = courses.id) AS video_count").
		Joins("JOIN users ON users.id = courses.instructor_id").
		Preload("Instructor")

	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"LOWER(courses.title) LIKE ? OR LOWER(courses.description) LIKE ? OR LOWER(users.username) LIKE ?",
			like, like, like,
		)
	}
	if len(f.IDs) > 0 {
		query = query.Where("courses.id IN ?", f.IDs)
	}
	if len(f.ExcludeIDs) > 0 {
		query = query.Where("courses.id NOT IN ?", f.ExcludeIDs)
	}
	if f.InstructorID != uuid.Nil {
		query = query.Where("courses.instructor_id = ?", f.InstructorID)
	}

	var courses []domain.Course
	err := query.Order("courses.created_at desc").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CourseRepository) UpdateDetails(ctx context.Context, c *domain.Course) error {
	err := r.db.WithContext(ctx).Model(&domain.Course{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"title":         c.Title,
			"description":   c.Description,
			"thumbnail_key": c.ThumbnailKey,
		}).Error
	if err != nil {
		return err
	}
	r.Invalidate(ctx, c.ID)
	return nil
}

// Delete removes the course with its videos and enrollments in one transaction.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&domain.Video{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.Enrollment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Course{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrCourseNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.Invalidate(ctx, id)
	return nil
}

// BumpOrderVersion is the ordering CAS: it succeeds only if nobody changed the
// version since it was read. Must run inside the ordering transaction.
func (r *CourseRepository) BumpOrderVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected int64) error {
	result := tx.WithContext(ctx).Model(&domain.Course{}).
		Where("id = ? AND order_version = ?", id, expected).
		Update("order_version", expected+1)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderConflict
	}
	return nil
}

// OrderVersion reads the current counter, bypassing the cache.
func (r *CourseRepository) OrderVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	var course domain.Course
	err := tx.WithContext(ctx).Select("id", "order_version").First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrCourseNotFound
		}
		return 0, err
	}
	return course.OrderVersion, nil
}

func (r *CourseRepository) Invalidate(ctx context.Context, id uuid.UUID) {
	if r.rdb != nil {
		r.rdb.Del(ctx, courseDetailKey(id))
	}
}
