//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"course-purchase/internal/domain"
	"course-purchase/internal/domain/model"
	"course-purchase/internal/domain/ports/adapter"
	"course-purchase/internal/usecase"
)

func newCertificateFixture() (*memStore, *MockNotifier, usecase.CertificateUseCase) {
	store := newMemStore()
	store.addCourse(model.Course{ID: "course-1", Title: "Go in Production", CertificateEnabled: true})
	store.addCourse(model.Course{ID: "course-2", Title: "SQL Basics", CertificateEnabled: false})
	store.addEnrollment(model.Enrollment{UserID: "user-1", CourseID: "course-1", CompletionPercentage: 100})
	store.addEnrollment(model.Enrollment{UserID: "user-1", CourseID: "course-2", CompletionPercentage: 100})
	store.addEnrollment(model.Enrollment{UserID: "user-2", CourseID: "course-1", CompletionPercentage: 67})

	notifier := &MockNotifier{}
	uc := usecase.NewCertificateUseCase(
		&memCourseRepo{s: store},
		&memEnrollmentRepo{s: store},
		&memCertificateRepo{s: store},
		notifier,
		newTestLogger(),
	)
	return store, notifier, uc
}

func TestCertificateUseCase_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("should issue a certificate for a completed course", func(t *testing.T) {
		// --- Arrange ---
		store, notifier, uc := newCertificateFixture()

		// --- Act ---
		cert, err := uc.Claim(ctx, "user-1", "course-1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !strings.HasPrefix(cert.Code, "CERT-COUR-USER-") {
			t.Errorf("unexpected certificate code %q", cert.Code)
		}
		if cert.IssuedAt.IsZero() {
			t.Error("expected issue date to be set")
		}
		if store.certCount() != 1 {
			t.Errorf("expected one stored certificate, got %d", store.certCount())
		}
		if kinds := notifier.kinds(); len(kinds) != 1 || kinds[0] != adapter.NotifyCertificateIssued {
			t.Errorf("expected certificate notification, got %v", kinds)
		}
	})

	t.Run("second claim is rejected", func(t *testing.T) {
		store, _, uc := newCertificateFixture()
		if _, err := uc.Claim(ctx, "user-1", "course-1"); err != nil {
			t.Fatalf("first claim: %v", err)
		}

		_, err := uc.Claim(ctx, "user-1", "course-1")

		if !errors.Is(err, domain.ErrAlreadyClaimed) {
			t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
		}
		if store.certCount() != 1 {
			t.Errorf("expected one stored certificate, got %d", store.certCount())
		}
	})

	t.Run("lost insert race maps to already claimed", func(t *testing.T) {
		store, _, uc := newCertificateFixture()
		store.CreateCertErr = domain.ErrAlreadyExists

		_, err := uc.Claim(ctx, "user-1", "course-1")

		if !errors.Is(err, domain.ErrAlreadyClaimed) {
			t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
		}
	})

	t.Run("should reject each unmet precondition", func(t *testing.T) {
		cases := []struct {
			name     string
			userID   string
			courseID string
			wantErr  error
		}{
			{"not enrolled", "user-3", "course-1", domain.ErrNotEnrolled},
			{"course not completed", "user-2", "course-1", domain.ErrCourseNotCompleted},
			{"certificates not offered", "user-1", "course-2", domain.ErrCertificatesNotOffered},
			{"missing course id", "user-1", "", domain.ErrInvalidArgument},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				store, _, uc := newCertificateFixture()

				_, err := uc.Claim(ctx, tc.userID, tc.courseID)

				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if store.certCount() != 0 {
					t.Error("expected no certificate to be stored")
				}
			})
		}
	})
}

func TestCertificateUseCase_List(t *testing.T) {
	ctx := context.Background()
	_, _, uc := newCertificateFixture()
	if _, err := uc.Claim(ctx, "user-1", "course-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	list, err := uc.List(ctx, "user-1")

	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if len(list) != 1 || list[0].CourseTitle != "Go in Production" {
		t.Fatalf("unexpected certificates: %+v", list)
	}
}
