package edge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

// Event kinds published by the edge.
const (
	EventControllerChange = "controllerchange"
	EventPush             = "push"
	EventSync             = "sync"
)

// SyncTagBackground is the only background-sync tag with a default handler.
const SyncTagBackground = "background-sync"

// Notification defaults.
const (
	NotificationTitle       = "Teología Reformada"
	DefaultNotificationBody = "Nueva lección diaria disponible"
	ActionExplore           = "explore"
	ActionClose             = "close"
	DailyLessonURL          = "/?action=daily-lesson"
)

// Event is something the edge announces to its clients.
type Event struct {
	Kind    string    `json:"kind"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier delivers events to clients.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) error { return nil }

// LogNotifier writes events to the log.
type LogNotifier struct {
	Logger *logger.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info("edge event", zap.String("kind", event.Kind), zap.Any("payload", event.Payload))
	return nil
}

// Publisher is the subset of a NATS connection the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes events as JSON on edge.notify.<kind>.
type NATSNotifier struct {
	Publisher Publisher
	Prefix    string
}

// Notify implements Notifier.
func (n NATSNotifier) Notify(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	prefix := n.Prefix
	if prefix == "" {
		prefix = "edge.notify"
	}
	if err := n.Publisher.Publish(prefix+"."+event.Kind, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// NotificationAction is a button on a notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon"`
}

// NotificationData is attached to a notification for click handling.
type NotificationData struct {
	DateOfArrival int64 `json:"dateOfArrival"`
	PrimaryKey    int   `json:"primaryKey"`
}

// Notification is a push notification to display.
type Notification struct {
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon"`
	Badge   string               `json:"badge"`
	Vibrate []int                `json:"vibrate"`
	Data    NotificationData     `json:"data"`
	Actions []NotificationAction `json:"actions"`
}

// NewPushNotification builds the notification shown for a push payload.
func NewPushNotification(payload string, now time.Time) Notification {
	body := payload
	if body == "" {
		body = DefaultNotificationBody
	}
	return Notification{
		Title:   NotificationTitle,
		Body:    body,
		Icon:    "/icons/icon-192x192.png",
		Badge:   "/icons/icon-72x72.png",
		Vibrate: []int{100, 50, 100},
		Data: NotificationData{
			DateOfArrival: now.UnixMilli(),
			PrimaryKey:    1,
		},
		Actions: []NotificationAction{
			{Action: ActionExplore, Title: "Ver lección", Icon: "/icons/icon-96x96.png"},
			{Action: ActionClose, Title: "Cerrar", Icon: "/icons/icon-96x96.png"},
		},
	}
}

// NotificationClick returns the URL to open for a clicked action, or "".
func NotificationClick(action string) string {
	if action == ActionExplore {
		return DailyLessonURL
	}
	return ""
}

// SyncHandler processes queued work for a background-sync tag.
type SyncHandler func(ctx context.Context) error

// Notifications holds the push and background-sync hooks.
type Notifications struct {
	notifier Notifier
	logger   *logger.Logger

	mu       sync.RWMutex
	handlers map[string]SyncHandler
}

// NewNotifications creates the hooks with a no-op background-sync handler.
func NewNotifications(notifier Notifier, log *logger.Logger) *Notifications {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	n := &Notifications{
		notifier: notifier,
		logger:   log.Named("notifications"),
		handlers: make(map[string]SyncHandler),
	}
	n.RegisterSync(SyncTagBackground, func(ctx context.Context) error {
		n.logger.Info("processing background sync")
		return nil
	})
	return n
}

// RegisterSync installs handler for tag, replacing any previous one.
func (n *Notifications) RegisterSync(tag string, handler SyncHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[tag] = handler
}

// Push shows a notification for payload.
func (n *Notifications) Push(ctx context.Context, payload string) (Notification, error) {
	notification := NewPushNotification(payload, time.Now())
	err := n.notifier.Notify(ctx, Event{Kind: EventPush, Payload: notification, At: time.Now().UTC()})
	if err != nil {
		return notification, fmt.Errorf("failed to show notification: %w", err)
	}
	return notification, nil
}

// BackgroundSync runs the handler registered for tag. It reports whether a
// handler ran; handler errors are logged, never returned.
func (n *Notifications) BackgroundSync(ctx context.Context, tag string) bool {
	n.mu.RLock()
	handler, ok := n.handlers[tag]
	n.mu.RUnlock()
	if !ok {
		n.logger.Debug("ignoring sync tag", zap.String("tag", tag))
		return false
	}
	if err := handler(ctx); err != nil {
		n.logger.Error("background sync failed", zap.String("tag", tag), zap.Error(err))
	}
	_ = n.notifier.Notify(ctx, Event{Kind: EventSync, Payload: map[string]string{"tag": tag}, At: time.Now().UTC()})
	return true
}
