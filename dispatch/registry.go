package dispatch

import (
	"sync"

	"tango-chat-app/dto"
)

// Sink is one live client connection.
type Sink interface {
	// Send must not block; false means the client cannot keep up.
	Send(envelope dto.Envelope) bool
	Close()
}

type set map[string]struct{}

// Registry tracks which users are connected and which room channels they
// listen on. Room subscriptions exist only while the user has a session.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]map[Sink]struct{}
	rooms     map[string]set
	userRooms map[string]set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]map[Sink]struct{}),
		rooms:     make(map[string]set),
		userRooms: make(map[string]set),
	}
}

func (r *Registry) Register(userID string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[userID] == nil {
		r.sessions[userID] = make(map[Sink]struct{})
	}
	r.sessions[userID][sink] = struct{}{}
}

// Deregister drops sink and, with the user's last session, all of the
// user's room subscriptions. It reports whether the sink was registered.
func (r *Registry) Deregister(userID string, sink Sink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sinks, ok := r.sessions[userID]
	if !ok {
		return false
	}
	if _, ok := sinks[sink]; !ok {
		return false
	}
	delete(sinks, sink)
	if len(sinks) > 0 {
		return true
	}

	delete(r.sessions, userID)
	for roomSlug := range r.userRooms[userID] {
		r.removeFromRoom(userID, roomSlug)
	}
	delete(r.userRooms, userID)
	return true
}

// JoinRoom is a no-op for offline users; they subscribe when they connect.
func (r *Registry) JoinRoom(userID, roomSlug string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, online := r.sessions[userID]; !online {
		return
	}
	if r.rooms[roomSlug] == nil {
		r.rooms[roomSlug] = make(set)
	}
	r.rooms[roomSlug][userID] = struct{}{}
	if r.userRooms[userID] == nil {
		r.userRooms[userID] = make(set)
	}
	r.userRooms[userID][roomSlug] = struct{}{}
}

func (r *Registry) LeaveRoom(userID, roomSlug string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoom(userID, roomSlug)
	if rooms, ok := r.userRooms[userID]; ok {
		delete(rooms, roomSlug)
		if len(rooms) == 0 {
			delete(r.userRooms, userID)
		}
	}
}

func (r *Registry) removeFromRoom(userID, roomSlug string) {
	members, ok := r.rooms[roomSlug]
	if !ok {
		return
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(r.rooms, roomSlug)
	}
}

// Sinks resolves an audience to the connections currently listening on it.
func (r *Registry) Sinks(audience Audience) []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []Sink
	switch audience.Kind {
	case AudienceUser:
		for sink := range r.sessions[audience.ID] {
			sinks = append(sinks, sink)
		}
	case AudienceRoom:
		for userID := range r.rooms[audience.ID] {
			for sink := range r.sessions[userID] {
				sinks = append(sinks, sink)
			}
		}
	}
	return sinks
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}

func (r *Registry) IsInRoom(userID, roomSlug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomSlug][userID]
	return ok
}

func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, sinks := range r.sessions {
		count += len(sinks)
	}
	return count
}
