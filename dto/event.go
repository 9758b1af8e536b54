package dto

// Server -> client event names. Responses to an action reuse the action name
// as their event.
const (
	EventError               = "error"
	EventNewChatThread       = "newChatThread"
	EventMessageReceived     = "messageReceived"
	EventMessageDeleted      = "messageDeleted"
	EventGroupMembersUpdated = "groupMembersUpdated"
	EventAddedToGroup        = "addedToGroup"
	EventRemovedFromGroup    = "removedFromGroup"
	EventPromotedToAdmin     = "promotedToAdmin"
	EventGroupUpdated        = "groupUpdated"
	EventGroupDeleted        = "groupDeleted"
)

// Client -> server actions.
const (
	ActionGetChatThreads    = "getChatThreads"
	ActionGetMessages       = "getMessages"
	ActionSendMessage       = "sendMessage"
	ActionCreateGroup       = "createGroup"
	ActionUpdateGroup       = "updateGroup"
	ActionDeleteGroup       = "deleteGroup"
	ActionAddMember         = "addMember"
	ActionRemoveMember      = "removeMember"
	ActionLeaveGroup        = "leaveGroup"
	ActionPromoteMember     = "promoteMember"
	ActionDemoteMember      = "demoteMember"
	ActionDeleteChatMessage = "deleteChatMessage"
	ActionResetMessageCount = "resetMessageCount"
	ActionBlockChatThread   = "blockChatThread"
	ActionDeleteChatThread  = "deleteChatThread"
)

// Envelope is every frame the server writes to a websocket.
type Envelope struct {
	Event     string        `json:"event"`
	RequestID string        `json:"requestId,omitempty"`
	Channel   string        `json:"channel,omitempty"`
	Data      any           `json:"data,omitempty"`
	Error     *ErrorPayload `json:"error,omitempty"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
