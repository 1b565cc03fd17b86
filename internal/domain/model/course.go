package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccessPolicy string

const (
	AccessLifetime AccessPolicy = "lifetime"
	AccessExpiry   AccessPolicy = "expiry"
)

// Course is the catalog view the purchase flow needs. It is owned by the
// catalog service and treated as read-only here.
type Course struct {
	ID                 string
	Title              string
	Price              decimal.Decimal
	AccessPolicy       AccessPolicy
	AccessDurationDays int
	CertificateEnabled bool
	CreatedAt          time.Time
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }

// AccessExpiry returns when an enrollment started at `from` stops granting
// access. Nil means lifetime access.
func (c *Course) AccessExpiry(from time.Time) *time.Time {
	if c.AccessPolicy != AccessExpiry || c.AccessDurationDays <= 0 {
		return nil
	}
	ex := from.Add(time.Duration(c.AccessDurationDays) * 24 * time.Hour)
	return &ex
}

// Lesson is a single watchable unit of a course.
type Lesson struct {
	ID       string
	CourseID string
	Title    string
	Position int
}
