package enum

// MembershipState is derived from the lifecycle flags of a membership row.
type MembershipState string

const (
	MembershipNone   MembershipState = "none"
	MembershipJoined MembershipState = "joined"
	MembershipLeaved MembershipState = "leaved"
	MembershipKicked MembershipState = "kicked"
)

type MembershipAction string

const (
	MembershipAdd   MembershipAction = "add"
	MembershipLeave MembershipAction = "leave"
	MembershipKick  MembershipAction = "kick"
)
