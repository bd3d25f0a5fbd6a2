package domain

// Access is the outcome of checking a user against a course.
type Access int

const (
	AccessDenied Access = iota
	AccessEnrolled
	AccessInstructor
)

func (a Access) String() string {
	switch a {
	case AccessInstructor:
		return "instructor"
	case AccessEnrolled:
		return "enrolled"
	default:
		return "denied"
	}
}

// CanWatch reports read access (watch, stream).
func (a Access) CanWatch() bool {
	return a == AccessInstructor || a == AccessEnrolled
}

// CanManage reports write access (edit, delete, reorder, add videos).
func (a Access) CanManage() bool {
	return a == AccessInstructor
}
