package enum

type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageFile  MessageType = "FILE"
	MessageBadge MessageType = "BADGE"
)

// BadgeType names the membership event a BADGE message records.
type BadgeType string

const (
	BadgeCreateGroup  BadgeType = "CREATE_GROUP"
	BadgeAddMember    BadgeType = "ADD_MEMBER"
	BadgeRemoveMember BadgeType = "REMOVE_MEMBER"
	BadgeLeaveGroup   BadgeType = "LEAVE_GROUP"
	BadgePromoteAdmin BadgeType = "PROMOTE_ADMIN"
)

type DeleteScope string

const (
	DeleteForMe       DeleteScope = "mine"
	DeleteForEveryone DeleteScope = "everyone"
)
