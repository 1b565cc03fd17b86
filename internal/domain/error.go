package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrLockNotAcquired    = errors.New("lock not acquired")

	// Purchase flow
	ErrCourseNotFound            = errors.New("course not found")
	ErrOrderNotFound             = errors.New("order not found or already processed")
	ErrAlreadyEnrolled           = errors.New("you are already enrolled in this course")
	ErrInvalidCoupon             = errors.New("invalid or expired coupon code")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")

	// Coupon restrictions; each one also matches ErrInvalidCoupon.
	ErrCouponExhausted         = fmt.Errorf("%w: usage limit reached", ErrInvalidCoupon)
	ErrCouponNotApplicable     = fmt.Errorf("%w: not valid for this course", ErrInvalidCoupon)
	ErrCouponFirstPurchaseOnly = fmt.Errorf("%w: only valid on a first purchase", ErrInvalidCoupon)

	// Learning
	ErrLessonNotFound = errors.New("lesson not found")
	ErrNotEnrolled    = errors.New("you are not enrolled in this course")
	ErrAccessExpired  = errors.New("your access to this course has expired")

	// Certificates
	ErrCourseNotCompleted     = errors.New("course not yet completed")
	ErrCertificatesNotOffered = errors.New("this course does not offer a certificate")
	ErrAlreadyClaimed         = errors.New("certificate already claimed")
)
