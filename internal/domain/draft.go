package domain

import (
	"time"

	"github.com/google/uuid"
)

// CourseDraft holds the first step of course creation until its videos are submitted.
type CourseDraft struct {
	ID           uuid.UUID `json:"id"`
	InstructorID uuid.UUID `json:"instructor_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
