package entity

import (
	"time"

	"tango-chat-app/enum"
)

// RoomMembership rows are never deleted: leaving and kicking only flip
// flags so a later add reuses the same row.
type RoomMembership struct {
	RoomSlug      string     `json:"roomSlug" gorm:"primaryKey;type:varchar(64);uniqueIndex:idx_room_single_owner,where:is_owner = true"`
	UserID        string     `json:"userId" gorm:"primaryKey;type:varchar(64);index"`
	IsOwner       bool       `json:"isOwner" gorm:"default:false"`
	IsSubAdmin    bool       `json:"isSubAdmin" gorm:"default:false"`
	IsLeaved      bool       `json:"isLeaved" gorm:"default:false"`
	IsKicked      bool       `json:"isKicked" gorm:"default:false"`
	IsBlocked     bool       `json:"isBlocked" gorm:"default:false"`
	UnreadCount   uint       `json:"unreadCount" gorm:"default:0"`
	LastMessageAt time.Time  `json:"lastMessageAt" gorm:"index"`
	Visible       bool       `json:"visible"`
	ClearedAt     *time.Time `json:"clearedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`

	Room ChatRoom `json:"-" gorm:"foreignKey:RoomSlug;references:Slug"`
}

func (m *RoomMembership) IsAdmin() bool {
	return m.IsOwner || m.IsSubAdmin
}

func (m *RoomMembership) IsActive() bool {
	return m.State() == enum.MembershipJoined
}

func (m *RoomMembership) State() enum.MembershipState {
	switch {
	case m == nil:
		return enum.MembershipNone
	case m.IsKicked:
		return enum.MembershipKicked
	case m.IsLeaved:
		return enum.MembershipLeaved
	default:
		return enum.MembershipJoined
	}
}

// SetState writes the lifecycle flags for state. Any exit from joined drops
// the admin roles so ownership never survives a departure.
func (m *RoomMembership) SetState(state enum.MembershipState) {
	m.IsLeaved = state == enum.MembershipLeaved
	m.IsKicked = state == enum.MembershipKicked
	if state != enum.MembershipJoined {
		m.IsOwner = false
		m.IsSubAdmin = false
	}
}
