package game

import "sync"

type sentEvent struct {
	Scope  string // "room", "except" or "client"
	Room   string
	Target string
	Except string
	Event  Event
}

// fakeBroadcaster records every delivery so tests can assert on ordering,
// scoping and payloads without a live hub.
type fakeBroadcaster struct {
	mu     sync.Mutex
	joins  map[string][]string
	leaves map[string][]string
	sent   []sentEvent
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		joins:  make(map[string][]string),
		leaves: make(map[string][]string),
	}
}

func (f *fakeBroadcaster) Join(roomID, clientID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins[roomID] = append(f.joins[roomID], clientID)
}

func (f *fakeBroadcaster) Leave(roomID, clientID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves[roomID] = append(f.leaves[roomID], clientID)
}

func (f *fakeBroadcaster) ToRoom(roomID string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{Scope: "room", Room: roomID, Event: event})
}

func (f *fakeBroadcaster) ToRoomExcept(roomID, exceptID string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{Scope: "except", Room: roomID, Except: exceptID, Event: event})
}

func (f *fakeBroadcaster) ToClient(clientID string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{Scope: "client", Target: clientID, Event: event})
}

func (f *fakeBroadcaster) ofType(eventType string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, e := range f.sent {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeBroadcaster) lastOfType(eventType string) (sentEvent, bool) {
	events := f.ofType(eventType)
	if len(events) == 0 {
		return sentEvent{}, false
	}
	return events[len(events)-1], true
}

func (f *fakeBroadcaster) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}
