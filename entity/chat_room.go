package entity

import (
	"time"

	"tango-chat-app/enum"
)

type ChatRoom struct {
	BaseEntity
	Type                 enum.RoomType `json:"type" gorm:"type:varchar(10);not null"`
	Name                 string        `json:"name" gorm:"type:varchar(100)"`
	Icon                 string        `json:"icon" gorm:"type:text"`
	CanMemberAddMember   bool          `json:"canMemberAddMember" gorm:"default:false"`
	CanMemberSendMessage bool          `json:"canMemberSendMessage"`
	CreatedBy            string        `json:"createdBy" gorm:"type:varchar(64)"`
	LastMessageAt        time.Time     `json:"lastMessageAt"`
	// PairKey is set only for single rooms; the unique index is what keeps
	// one single room per user pair.
	PairKey *string `json:"-" gorm:"type:varchar(140);uniqueIndex"`

	Memberships []RoomMembership `json:"-" gorm:"foreignKey:RoomSlug;references:Slug"`
}

func (room *ChatRoom) IsGroup() bool {
	return room.Type == enum.RoomGroup
}

// DirectPairKey orders the two ids so (a,b) and (b,a) share one key.
func DirectPairKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
