package notifier

// EventType names a store mutation observable on the event bus.
type EventType string

const (
	EventCreated EventType = "notification.created"
	EventRead    EventType = "notification.read"
	EventDeleted EventType = "notification.deleted"
)

// Event is one store change. MarkAllAsRead publishes one EventRead per
// notification it transitions, preserving per-user ordering.
type Event struct {
	Type         EventType
	Notification Notification
}
