package res

// ChatResponse is one entry of a user's thread list.
type ChatResponse struct {
	RoomSlug             string           `json:"roomSlug"`
	Type                 string           `json:"type"`
	Name                 string           `json:"name"`
	Icon                 string           `json:"icon,omitempty"`
	LastMessage          *MessageResponse `json:"lastMessage,omitempty"`
	UnreadCount          uint             `json:"unreadCount"`
	LastMessageTime      string           `json:"lastMessageTime"`
	State                string           `json:"state"`
	IsOwner              bool             `json:"isOwner"`
	IsSubAdmin           bool             `json:"isSubAdmin"`
	IsBlocked            bool             `json:"isBlocked"`
	CanMemberAddMember   bool             `json:"canMemberAddMember"`
	CanMemberSendMessage bool             `json:"canMemberSendMessage"`
}

type MemberResponse struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	IsOwner    bool   `json:"isOwner"`
	IsSubAdmin bool   `json:"isSubAdmin"`
	State      string `json:"state"`
}

type MembersResponse struct {
	RoomSlug string           `json:"roomSlug"`
	Members  []MemberResponse `json:"members"`
}

type GroupResponse struct {
	RoomSlug             string `json:"roomSlug"`
	Name                 string `json:"name"`
	Icon                 string `json:"icon,omitempty"`
	CanMemberAddMember   bool   `json:"canMemberAddMember"`
	CanMemberSendMessage bool   `json:"canMemberSendMessage"`
}

// MemberChangeResponse answers addMember/removeMember/leaveGroup.
type MemberChangeResponse struct {
	RoomSlug   string   `json:"roomSlug"`
	UserIDs    []string `json:"userIds"`
	PromotedID string   `json:"promotedId,omitempty"`
}

type ThreadStateResponse struct {
	RoomSlug    string `json:"roomSlug"`
	UnreadCount uint   `json:"unreadCount"`
	IsBlocked   bool   `json:"isBlocked"`
	Visible     bool   `json:"visible"`
}
