package notification

import (
	"context"
	"time"
)

// NewMessage is handed to the push-notification pipeline for recipients that
// are not connected when a message is sent.
type NewMessage struct {
	MessageSlug  string    `json:"messageSlug"`
	RoomSlug     string    `json:"roomSlug"`
	RoomName     string    `json:"roomName,omitempty"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	Preview      string    `json:"preview"`
	RecipientIDs []string  `json:"recipientIds"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Notifier interface {
	NotifyNewMessage(ctx context.Context, message NewMessage) error
	Close() error
}

// NopNotifier is used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyNewMessage(context.Context, NewMessage) error { return nil }

func (NopNotifier) Close() error { return nil }
