package usecase

import "tango-chat-app/enum"

// membershipTransitions is the whole lifecycle of a (room, user) pair. A
// missing entry means the action does not apply from that state.
var membershipTransitions = map[enum.MembershipAction]map[enum.MembershipState]enum.MembershipState{
	enum.MembershipAdd: {
		enum.MembershipNone:   enum.MembershipJoined,
		enum.MembershipLeaved: enum.MembershipJoined,
		enum.MembershipKicked: enum.MembershipJoined,
	},
	enum.MembershipLeave: {
		enum.MembershipJoined: enum.MembershipLeaved,
	},
	enum.MembershipKick: {
		enum.MembershipJoined: enum.MembershipKicked,
	},
}

func NextMembershipState(from enum.MembershipState, action enum.MembershipAction) (enum.MembershipState, bool) {
	to, ok := membershipTransitions[action][from]
	return to, ok
}
