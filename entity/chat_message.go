package entity

import (
	"time"

	"tango-chat-app/enum"
)

type ChatMessage struct {
	BaseEntity
	RoomSlug     string           `json:"roomSlug" gorm:"type:varchar(64);not null;index:idx_message_room_created,priority:1"`
	SenderID     string           `json:"senderId" gorm:"type:varchar(64);not null"`
	MessageType  enum.MessageType `json:"messageType" gorm:"type:varchar(10);not null"`
	BadgeType    enum.BadgeType   `json:"badgeType,omitempty" gorm:"type:varchar(20)"`
	TargetUserID string           `json:"targetUserId,omitempty" gorm:"type:varchar(64)"`
	Body         string           `json:"body" gorm:"type:text"`
	FileURL      string           `json:"fileUrl,omitempty" gorm:"type:text"`
	FileName     string           `json:"fileName,omitempty" gorm:"type:varchar(255)"`
	FileSize     int64            `json:"fileSize,omitempty"`
	MimeType     string           `json:"mimeType,omitempty" gorm:"type:varchar(100)"`

	IsDeletedForEveryone bool       `json:"isDeletedForEveryone" gorm:"default:false"`
	DeletedForEveryoneAt *time.Time `json:"deletedForEveryoneAt,omitempty"`

	Statuses []MessageStatus `json:"-" gorm:"foreignKey:MessageSlug;references:Slug"`
}
