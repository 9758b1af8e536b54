package enum

// MessageStatus is a recipient's view of a message. The sender's own copy
// starts as read.
type MessageStatus string

const (
	MessageStatusSent MessageStatus = "sent"
	MessageStatusRead MessageStatus = "read"
)
