package model

import (
	"math"
	"time"
)

// Enrollment grants a user access to a course. Its identity is the
// (UserID, CourseID) pair.
type Enrollment struct {
	UserID               string
	CourseID             string
	EnrolledAt           time.Time
	ExpiresAt            *time.Time // nil = lifetime
	CompletionPercentage int
}

func (e *Enrollment) ActiveAt(t time.Time) bool {
	if e == nil {
		return false
	}
	return e.ExpiresAt == nil || t.Before(*e.ExpiresAt)
}

func (e *Enrollment) Completed() bool {
	return e != nil && e.CompletionPercentage >= 100
}

// EnrolledCourse is an enrollment joined with its course title.
type EnrolledCourse struct {
	Enrollment
	CourseTitle string
}

// WatchHistory is a user's latest progress on one lesson.
type WatchHistory struct {
	UserID    string
	LessonID  string
	Progress  int
	UpdatedAt time.Time
}

// LessonCompleted is the progress value at which a lesson counts as watched.
const LessonCompleted = 100

// CompletionPercentage returns round(100 * completed / total), or 0 when the
// course has no lessons.
func CompletionPercentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// ValidProgress reports whether p is an accepted progress value.
func ValidProgress(p int) bool { return p >= 0 && p <= 100 }
