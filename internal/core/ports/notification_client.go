package ports

import "context"

// NotificationClient is the contract with the external notification channel.
// The core never consumes its return value beyond logging: notification
// delivery is best-effort and must not delay or abort a state transition.
type NotificationClient interface {
	Send(ctx context.Context, to, template string, data map[string]any) error
}
