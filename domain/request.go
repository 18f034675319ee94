package domain

// NotificationRequest is the input of the notification pipeline.
type NotificationRequest struct {
	Recipient string
	Actor     string
	Type      NotificationType
	Data      map[string]any
	Message   string
}
