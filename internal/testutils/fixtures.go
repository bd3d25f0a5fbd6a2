package testutils

import (
	"bytes"
	"fmt"

	"github.com/waste3d/coursehub/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateTestUser creates a user with a unique username and email.
func CreateTestUser(db *gorm.DB, opts ...UserOption) *domain.User {
	uniqueID := uuid.New().String()[:8]
	u := &domain.User{
		Username: fmt.Sprintf("user_%s", uniqueID),
		Email:    fmt.Sprintf("user_%s@example.com", uniqueID),
		Password: "not-a-real-hash",
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := db.Create(u).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test user: %v", err))
	}
	return u
}

type UserOption func(*domain.User)

func WithUsername(username string) UserOption {
	return func(u *domain.User) {
		u.Username = username
	}
}

func WithPasswordHash(hash string) UserOption {
	return func(u *domain.User) {
		u.Password = hash
	}
}

// CreateTestCourse creates a course taught by instructor.
func CreateTestCourse(db *gorm.DB, instructor *domain.User, opts ...CourseOption) *domain.Course {
	c := &domain.Course{
		Title:        "Course " + uuid.New().String()[:8],
		Description:  "A test course",
		InstructorID: instructor.ID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := db.Create(c).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test course: %v", err))
	}
	return c
}

type CourseOption func(*domain.Course)

func WithTitle(title string) CourseOption {
	return func(c *domain.Course) {
		c.Title = title
	}
}

func WithDescription(description string) CourseOption {
	return func(c *domain.Course) {
		c.Description = description
	}
}

func WithThumbnail(key string) CourseOption {
	return func(c *domain.Course) {
		c.ThumbnailKey = key
	}
}

// CreateTestVideo inserts a video row at the given position without touching storage.
func CreateTestVideo(db *gorm.DB, course *domain.Course, title string, order int, opts ...VideoOption) *domain.Video {
	v := &domain.Video{
		CourseID: course.ID,
		Title:    title,
		MediaKey: fmt.Sprintf("course_videos/%s/%s.mp4", course.ID, uuid.NewString()),
		Order:    order,
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := db.Create(v).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test video: %v", err))
	}
	return v
}

type VideoOption func(*domain.Video)

func WithMediaKey(key string) VideoOption {
	return func(v *domain.Video) {
		v.MediaKey = key
	}
}

func CreateTestEnrollment(db *gorm.DB, user *domain.User, course *domain.Course) *domain.Enrollment {
	e := &domain.Enrollment{UserID: user.ID, CourseID: course.ID}
	if err := db.Create(e).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test enrollment: %v", err))
	}
	return e
}

// FakeMP4 returns size bytes starting with an ISO BMFF ftyp box.
func FakeMP4(size int) []byte {
	header := []byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00isomiso2avc1mp41")
	if size < len(header) {
		size = len(header)
	}
	data := make([]byte, size)
	copy(data, header)
	for i := len(header); i < size; i++ {
		data[i] = byte(i % 251)
	}
	return data
}

// FakePNG returns a minimal PNG signature followed by padding.
func FakePNG() []byte {
	var buf bytes.Buffer
	buf.Write([]byte("\x89PNG\r\n\x1a\n"))
	buf.Write([]byte("\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"))
	buf.Write(make([]byte, 64))
	return buf.Bytes()
}

// Pattern returns n bytes where byte i is i mod 256.
func Pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}
