package repository

import (
	"context"
	"errors"

	"github.com/waste3d/coursehub/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create relies on the (user_id, course_id) unique index, so a second enrollment
// for the same pair is rejected even when two requests race.
func (r *EnrollmentRepository) Create(ctx context.Context, userID, courseID uuid.UUID) (*domain.Enrollment, error) {
	enrollment := &domain.Enrollment{UserID: userID, CourseID: courseID}
	if err := r.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

func (r *EnrollmentRepository) Delete(ctx context.Context, userID, courseID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&domain.Enrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotEnrolled
	}
	return nil
}

func (r *EnrollmentRepository) Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *EnrollmentRepository) CourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("user_id = ?", userID).
		Pluck("course_id", &ids).Error
	return ids, err
}
