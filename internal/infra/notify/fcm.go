package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"course-purchase/internal/domain/ports/adapter"
)

// Sender delivers a single notification synchronously.
type Sender interface {
	Send(ctx context.Context, n adapter.Notification) error
}

// messagingClient is the slice of *messaging.Client the FCM sender uses.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

var _ Sender = (*FCMSender)(nil)

// FCMSender publishes to the per-user topic "user-<id>" the mobile and web
// clients subscribe to after login.
type FCMSender struct {
	client messagingClient
}

func NewFCMSender(ctx context.Context, projectID, credentialsFile string) (*FCMSender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func TopicFor(userID string) string { return "user-" + userID }

func (s *FCMSender) Send(ctx context.Context, n adapter.Notification) error {
	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	data["kind"] = string(n.Kind)

	_, err := s.client.Send(ctx, &messaging.Message{
		Topic: TopicFor(n.UserID),
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
	})
	return err
}
