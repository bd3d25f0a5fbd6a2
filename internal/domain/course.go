package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null;index" json:"title"`
	Description  string    `gorm:"not null" json:"description"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
	InstructorID uuid.UUID `gorm:"type:uuid;index;not null" json:"instructor_id"`
	Instructor   *User     `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE;" json:"instructor,omitempty"`

	// OrderVersion is bumped by every ordering mutation and used as a CAS guard.
	OrderVersion int64 `gorm:"not null;default:0" json:"-"`

	Videos      []Video      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"videos,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"-"`

	// VideoCount is filled by list queries only.
	VideoCount int64 `gorm:"->;-:migration" json:"video_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Video is a single lesson of a course. Order is dense 1..N within the course.
type Video struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;index;not null" json:"course_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	MediaKey    string    `gorm:"not null" json:"-"`
	Description *string   `json:"description,omitempty"`
	Order       int       `gorm:"column:order;not null" json:"order"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (v *Video) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Enrollment links a user to a course they may watch. (user, course) is unique.
type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
}

func (e *Enrollment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
