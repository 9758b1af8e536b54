package req

import (
	"encoding/json"
	"time"

	"tango-chat-app/enum"
)

// InboundFrame is what a client writes to the websocket.
type InboundFrame struct {
	Action    string          `json:"action" validate:"required"`
	RequestID string          `json:"requestId" validate:"omitempty,max=100"`
	Data      json.RawMessage `json:"data"`
}

// SendMessageRequest addresses either an existing room or, for a first
// direct message, the receiving user.
type SendMessageRequest struct {
	RoomSlug    string           `json:"roomSlug" validate:"required_without=ReceiverID"`
	ReceiverID  string           `json:"receiverId" validate:"required_without=RoomSlug"`
	MessageType enum.MessageType `json:"messageType" validate:"omitempty,oneof=TEXT FILE"`
	Body        string           `json:"body" validate:"max=5000"`
	FileURL     string           `json:"fileUrl" validate:"omitempty,url"`
	FileName    string           `json:"fileName" validate:"max=255"`
	FileSize    int64            `json:"fileSize" validate:"min=0"`
	MimeType    string           `json:"mimeType" validate:"max=100"`
}

type DeleteMessageRequest struct {
	MessageSlug string           `json:"messageSlug" validate:"required"`
	Scope       enum.DeleteScope `json:"scope" validate:"required,oneof=mine everyone"`
}

type GetMessagesRequest struct {
	RoomSlug string     `json:"roomSlug" validate:"required"`
	Before   *time.Time `json:"before"`
	Limit    int        `json:"limit" validate:"omitempty,min=1,max=100"`
}
