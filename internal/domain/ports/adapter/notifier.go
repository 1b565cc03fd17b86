package adapter

import "context"

type NotificationKind string

const (
	NotifyEnrollmentConfirmed NotificationKind = "enrollment_confirmed"
	NotifyPaymentFailed       NotificationKind = "payment_failed"
	NotifyCertificateIssued   NotificationKind = "certificate_issued"
)

// Notification is a push message addressed to a single user.
type Notification struct {
	Kind   NotificationKind
	UserID string
	Title  string
	Body   string
	Data   map[string]string
}

// Notifier delivers notifications to users. Implementations may deliver
// asynchronously; a returned error only means the notification was not accepted.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
