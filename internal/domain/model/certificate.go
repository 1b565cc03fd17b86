package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Certificate is issued at most once per (UserID, CourseID).
type Certificate struct {
	ID       string
	UserID   string
	CourseID string
	Code     string
	IssuedAt time.Time
}

// IssuedCertificate is a certificate joined with its course title.
type IssuedCertificate struct {
	Certificate
	CourseTitle string
}

// NewCertificateCode builds a human readable code. The code is cosmetic; the
// row keyed by (user, course) is what makes a certificate authentic.
func NewCertificateCode(courseID, userID string) string {
	id := ulid.Make().String()
	return fmt.Sprintf("CERT-%s-%s-%s", fragment(courseID), fragment(userID), id[len(id)-6:])
}

func fragment(id string) string {
	s := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(s) > 4 {
		s = s[:4]
	}
	if s == "" {
		s = "XXXX"
	}
	return s
}
