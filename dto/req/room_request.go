package req

type RoomRequest struct {
	RoomSlug string `json:"roomSlug" validate:"required"`
}

type CreateGroupRequest struct {
	Name                 string   `json:"name" validate:"required,min=1,max=100"`
	Icon                 string   `json:"icon" validate:"max=2048"`
	MemberIDs            []string `json:"memberIds" validate:"dive,required"`
	CanMemberAddMember   bool     `json:"canMemberAddMember"`
	CanMemberSendMessage *bool    `json:"canMemberSendMessage"`
}

type UpdateGroupRequest struct {
	RoomSlug             string  `json:"roomSlug" validate:"required"`
	Name                 *string `json:"name" validate:"omitempty,min=1,max=100"`
	Icon                 *string `json:"icon" validate:"omitempty,max=2048"`
	CanMemberAddMember   *bool   `json:"canMemberAddMember"`
	CanMemberSendMessage *bool   `json:"canMemberSendMessage"`
}

type MembersRequest struct {
	RoomSlug string   `json:"roomSlug" validate:"required"`
	UserIDs  []string `json:"userIds" validate:"required,min=1,dive,required"`
}

type MemberRequest struct {
	RoomSlug string `json:"roomSlug" validate:"required"`
	UserID   string `json:"userId" validate:"required"`
}

type BlockThreadRequest struct {
	RoomSlug string `json:"roomSlug" validate:"required"`
	Blocked  bool   `json:"blocked"`
}
