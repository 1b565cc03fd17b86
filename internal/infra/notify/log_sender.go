package notify

import (
	"context"

	"github.com/rs/zerolog"

	"course-purchase/internal/domain/ports/adapter"
	"course-purchase/internal/infra/logging"
)

var _ Sender = (*LogSender)(nil)

// LogSender writes notifications to the log. Used when push delivery is disabled.
type LogSender struct {
	log *zerolog.Logger
}

func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{log: logging.OrNop(logger)}
}

func (s *LogSender) Send(_ context.Context, n adapter.Notification) error {
	s.log.Info().
		Str("kind", string(n.Kind)).
		Str("user_id", n.UserID).
		Str("title", n.Title).
		Msg("notification")
	return nil
}
