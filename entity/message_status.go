package entity

import (
	"time"

	"tango-chat-app/enum"
)

type MessageStatus struct {
	MessageSlug string             `json:"messageSlug" gorm:"primaryKey;type:varchar(64)"`
	UserID      string             `json:"userId" gorm:"primaryKey;type:varchar(64);index"`
	Status      enum.MessageStatus `json:"status" gorm:"type:varchar(20);default:'sent'"`
	ReadAt      *time.Time         `json:"readAt,omitempty"`
	IsDeleted   bool               `json:"isDeleted" gorm:"default:false"`
	CreatedAt   time.Time          `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time          `json:"updatedAt" gorm:"autoUpdateTime"`
}
