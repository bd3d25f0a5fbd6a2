package repository

import (
	"context"
	"errors"

	"github.com/waste3d/coursehub/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const orderAsc = `"order" asc`

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *VideoRepository) WithTx(tx *gorm.DB) *VideoRepository {
	return &VideoRepository{db: tx}
}

func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	var video domain.Video
	err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, err
	}
	return &video, nil
}

func (r *VideoRepository) GetByOrder(ctx context.Context, courseID uuid.UUID, order int) (*domain.Video, error) {
	var video domain.Video
	err := r.db.WithContext(ctx).
		Where(`course_id = ? AND "order" = ?`, courseID, order).
		First(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, err
	}
	return &video, nil
}

func (r *VideoRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]domain.Video, error) {
	var videos []domain.Video
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order(orderAsc).
		Find(&videos).Error
	return videos, err
}

// MaxOrder returns 0 for a course without videos.
func (r *VideoRepository) MaxOrder(ctx context.Context, courseID uuid.UUID) (int, error) {
	var maxOrder int
	err := r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("course_id = ?", courseID).
		Select(`COALESCE(MAX("order"), 0)`).
		Scan(&maxOrder).Error
	return maxOrder, err
}

func (r *VideoRepository) CreateBatch(ctx context.Context, videos []*domain.Video) error {
	if len(videos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(videos).Error
}

// UpdateDetails changes title, description and media key. Order is owned by the ordering manager.
func (r *VideoRepository) UpdateDetails(ctx context.Context, video *domain.Video) error {
	return r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("id = ?", video.ID).
		Updates(map[string]interface{}{
			"title":       video.Title,
			"description": video.Description,
			"media_key":   video.MediaKey,
		}).Error
}

func (r *VideoRepository) SetOrder(ctx context.Context, id uuid.UUID, order int) error {
	result := r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("id = ?", id).
		Update("order", order)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Video{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}
