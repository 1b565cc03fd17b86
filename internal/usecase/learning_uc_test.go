//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/repository"
	"course-purchase/internal/usecase"
)

func newLearningFixture() (*memStore, usecase.LearningUseCase) {
	store := newMemStore()
	store.addCourse(model.Course{ID: "course-1", Title: "Go in Production", Price: dec("1000"), AccessPolicy: model.AccessLifetime})
	store.addLessons("course-1", "l1", "l2", "l3")
	store.addEnrollment(model.Enrollment{UserID: "user-1", CourseID: "course-1", EnrolledAt: time.Now()})

	uc := usecase.NewLearningUseCase(
		&memLessonRepo{s: store},
		&memEnrollmentRepo{s: store},
		&memWatchHistoryRepo{s: store},
		&memTxManager{store: store},
		newTestLogger(),
	)
	return store, uc
}

// noLessonsCounted reports zero lessons for every course.
type noLessonsCounted struct{ memLessonRepo }

func (noLessonsCounted) CountByCourse(context.Context, repository.Tx, string) (int, error) {
	return 0, nil
}

func TestLearningUseCase_UpdateProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("should recompute completion from fully watched lessons", func(t *testing.T) {
		// --- Arrange ---
		store, uc := newLearningFixture()

		steps := []struct {
			lesson   string
			progress int
			want     int
		}{
			{"l1", 40, 0},
			{"l1", 100, 33},
			{"l2", 100, 67},
			{"l3", 99, 67},
			{"l3", 100, 100},
		}

		for _, s := range steps {
			// --- Act ---
			got, err := uc.UpdateProgress(ctx, usecase.ProgressCommand{UserID: "user-1", LessonID: s.lesson, Progress: s.progress})

			// --- Assert ---
			if err != nil {
				t.Fatalf("%s@%d: expected no error, but got: %v", s.lesson, s.progress, err)
			}
			if got != s.want {
				t.Errorf("%s@%d: expected %d%%, got %d%%", s.lesson, s.progress, s.want, got)
			}
		}
		e, _ := store.enrollment("user-1", "course-1")
		if e.CompletionPercentage != 100 {
			t.Errorf("expected stored completion 100, got %d", e.CompletionPercentage)
		}
	})

	t.Run("last write wins for a lesson", func(t *testing.T) {
		store, uc := newLearningFixture()
		if _, err := uc.UpdateProgress(ctx, usecase.ProgressCommand{UserID: "user-1", LessonID: "l1", Progress: 100}); err != nil {
			t.Fatal(err)
		}

		got, err := uc.UpdateProgress(ctx, usecase.ProgressCommand{UserID: "user-1", LessonID: "l1", Progress: 10})

		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if got != 0 {
			t.Errorf("expected completion to drop to 0, got %d", got)
		}
		if w := store.history[key("user-1", "l1")]; w.Progress != 10 {
			t.Errorf("expected stored progress 10, got %d", w.Progress)
		}
	})

	t.Run("no fully watched lesson keeps completion at zero", func(t *testing.T) {
		store, uc := newLearningFixture()
		for _, l := range []string{"l1", "l2", "l3"} {
			pct, err := uc.UpdateProgress(ctx, usecase.ProgressCommand{UserID: "user-1", LessonID: l, Progress: 0})
			if err != nil {
				t.Fatalf("expected no error, but got: %v", err)
			}
			if pct != 0 {
				t.Errorf("expected 0, got %d", pct)
			}
		}
		if e, _ := store.enrollment("user-1", "course-1"); e.CompletionPercentage != 0 {
			t.Errorf("expected stored completion 0, got %d", e.CompletionPercentage)
		}
	})

	t.Run("completion does not depend on the order lessons are finished", func(t *testing.T) {
		store, uc := newLearningFixture()
		want := []int{33, 67, 100}
		for i, l := range []string{"l3", "l1", "l2"} {
			pct, err := uc.UpdateProgress(ctx, usecase.ProgressCommand{UserID: "user-1", LessonID: l, Progress: 100})
			if err != nil {
				t.Fatalf("%s: expected no error, but got: %v", l, err)
			}
			if pct != want[i] {
				t.Errorf("%s: expected %d%%, got %d%%", l, want[i], pct)
			}
		}
		if e, _ := store.enrollment("user-1", "course-1"); e.CompletionPercentage != 100 {
			t.Errorf("expected stored completion 100, got %d", e.CompletionPercentage)
		}
	})

	t.Run("course without counted lessons stays at zero", func(t *testing.T) {
		// --- Arrange ---
		// The lesson is looked up, then the course's lessons are unpublished
		// before the count runs.
		store := newMemStore()
		store.addCourse(model.Course{ID: "course-empty", Title: "Coming Soon", Price: dec("100"), AccessPolicy: model.AccessLifetime})
		store.addLessons("course-empty", "e1")
		store.addEnrollment(model.Enrollment{UserID: "user-1", CourseID: "course-empty", EnrolledAt: time.Now()})
		uc := usecase.NewLearningUseCase(
			&noLessonsCounted{memLessonRepo{s: store}},
			&memEnrollmentRepo{s: store},
			&memWatchHistoryRepo{s: store},
			&memTxManager{store: store},
			newTestLogger(),
		)

		// --- Act ---
		pct, err := uc.UpdateProgress(ctx, usecase.ProgressCommand{UserID: "user-1", LessonID: "e1", Progress: 100})

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if pct != 0 {
			t.Errorf("expected 0%% for a course with no lessons, got %d%%", pct)
		}
		if e, _ := store.enrollment("user-1", "course-empty"); e.CompletionPercentage != 0 || e.Completed() {
			t.Errorf("expected enrollment to stay incomplete, got %+v", e)
		}
	})

	t.Run("should reject invalid input and missing access", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		cases := []struct {
			name    string
			cmd     usecase.ProgressCommand
			arrange func(s *memStore)
			wantErr error
		}{
			{"progress above 100", usecase.ProgressCommand{UserID: "user-1", LessonID: "l1", Progress: 101}, nil, domain.ErrInvalidArgument},
			{"negative progress", usecase.ProgressCommand{UserID: "user-1", LessonID: "l1", Progress: -1}, nil, domain.ErrInvalidArgument},
			{"unknown lesson", usecase.ProgressCommand{UserID: "user-1", LessonID: "nope", Progress: 50}, nil, domain.ErrLessonNotFound},
			{"not enrolled", usecase.ProgressCommand{UserID: "user-2", LessonID: "l1", Progress: 50}, nil, domain.ErrNotEnrolled},
			{
				"expired access",
				usecase.ProgressCommand{UserID: "user-1", LessonID: "l1", Progress: 50},
				func(s *memStore) {
					s.addEnrollment(model.Enrollment{UserID: "user-1", CourseID: "course-1", ExpiresAt: &past})
				},
				domain.ErrAccessExpired,
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				store, uc := newLearningFixture()
				if tc.arrange != nil {
					tc.arrange(store)
				}

				_, err := uc.UpdateProgress(ctx, tc.cmd)

				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if len(store.history) != 0 {
					t.Error("expected no watch history to be written")
				}
			})
		}
	})
}

func TestLearningUseCase_MyCourses(t *testing.T) {
	_, uc := newLearningFixture()
	list, err := uc.MyCourses(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if len(list) != 1 || list[0].CourseTitle != "Go in Production" {
		t.Fatalf("unexpected courses: %+v", list)
	}
}
