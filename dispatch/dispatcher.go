package dispatch

import (
	"context"

	"tango-chat-app/config/logger"
	"tango-chat-app/dto"
	"tango-chat-app/notification"
)

type Dispatcher struct {
	Registry *Registry
	Notifier notification.Notifier
	Log      *logger.AppLogger
}

func NewDispatcher(registry *Registry, notifier notification.Notifier, log *logger.AppLogger) *Dispatcher {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	return &Dispatcher{Registry: registry, Notifier: notifier, Log: log}
}

// Flush applies effects in order. Delivery problems are logged and never
// surface to the caller: the action has already succeeded.
func (d *Dispatcher) Flush(ctx context.Context, effects []Effect) {
	for _, effect := range effects {
		switch effect.Op {
		case OpEmit:
			d.emit(effect)
		case OpJoin:
			d.Registry.JoinRoom(effect.UserID, effect.RoomSlug)
		case OpLeave:
			d.Registry.LeaveRoom(effect.UserID, effect.RoomSlug)
		case OpNotify:
			d.notify(ctx, effect.Notification)
		default:
			d.Log.WS.Warning.Warn().Int("op", int(effect.Op)).Msg("unknown effect")
		}
	}
}

func (d *Dispatcher) emit(effect Effect) {
	channel := effect.Audience.Channel()
	envelope := dto.Envelope{
		Event:   effect.Event,
		Channel: channel,
		Data:    effect.Payload,
	}

	sinks := d.Registry.Sinks(effect.Audience)
	d.Log.WS.Trace.Trace().
		Str("channel", channel).
		Str("event", effect.Event).
		Int("sinks", len(sinks)).
		Msg("emit")

	for _, sink := range sinks {
		if sink.Send(envelope) {
			continue
		}
		d.Log.WS.Warning.Warn().
			Str("channel", channel).
			Str("event", effect.Event).
			Msg("dropping slow client")
		d.drop(sink)
	}
}

// drop removes a sink that could not take a frame from every user it was
// registered under, then closes it.
func (d *Dispatcher) drop(sink Sink) {
	if owned, ok := sink.(interface{ UserID() string }); ok {
		d.Registry.Deregister(owned.UserID(), sink)
	}
	sink.Close()
}

// notify forwards to the push pipeline only the recipients with no live
// connection; connected users already got the websocket event.
func (d *Dispatcher) notify(ctx context.Context, message *notification.NewMessage) {
	if message == nil {
		return
	}
	offline := make([]string, 0, len(message.RecipientIDs))
	for _, userID := range message.RecipientIDs {
		if !d.Registry.IsOnline(userID) {
			offline = append(offline, userID)
		}
	}
	if len(offline) == 0 {
		return
	}

	out := *message
	out.RecipientIDs = offline
	if err := d.Notifier.NotifyNewMessage(ctx, out); err != nil {
		d.Log.WS.Error.Error().
			Err(err).
			Str("roomSlug", message.RoomSlug).
			Str("messageSlug", message.MessageSlug).
			Msg("failed to hand off push notification")
	}
}
