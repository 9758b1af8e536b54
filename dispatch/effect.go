package dispatch

import (
	"tango-chat-app/notification"
)

type AudienceKind string

const (
	AudienceRoom AudienceKind = "room"
	AudienceUser AudienceKind = "user"
)

// Audience addresses one broadcast channel: room_<slug> or user_<id>.
type Audience struct {
	Kind AudienceKind
	ID   string
}

func Room(slug string) Audience {
	return Audience{Kind: AudienceRoom, ID: slug}
}

func User(id string) Audience {
	return Audience{Kind: AudienceUser, ID: id}
}

func (a Audience) Channel() string {
	return string(a.Kind) + "_" + a.ID
}

type Op int

const (
	OpEmit Op = iota + 1
	OpJoin
	OpLeave
	OpNotify
)

func (op Op) String() string {
	switch op {
	case OpEmit:
		return "emit"
	case OpJoin:
		return "join"
	case OpLeave:
		return "leave"
	case OpNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// Effect is one deferred side effect of an action. Usecases return them and
// the caller flushes them after the requester got its response, so a failed
// action never reaches other listeners.
//
// Only the fields belonging to Op are set:
//   - OpEmit: Audience, Event, Payload
//   - OpJoin, OpLeave: UserID, RoomSlug
//   - OpNotify: Notification
type Effect struct {
	Op           Op
	Audience     Audience
	Event        string
	Payload      any
	UserID       string
	RoomSlug     string
	Notification *notification.NewMessage
}

func Emit(audience Audience, event string, payload any) Effect {
	return Effect{Op: OpEmit, Audience: audience, Event: event, Payload: payload}
}

// Join subscribes every live connection of userID to the room channel.
func Join(userID, roomSlug string) Effect {
	return Effect{Op: OpJoin, UserID: userID, RoomSlug: roomSlug}
}

func Leave(userID, roomSlug string) Effect {
	return Effect{Op: OpLeave, UserID: userID, RoomSlug: roomSlug}
}

func Notify(message notification.NewMessage) Effect {
	return Effect{Op: OpNotify, Notification: &message}
}
