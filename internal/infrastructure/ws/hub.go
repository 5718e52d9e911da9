package ws

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Vatanesh/sbg-skribbl/internal/game"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/events"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/metrics"
)

// BridgePublisher relays envelopes to other server processes. Nil disables
// relaying (single-process deployment).
type BridgePublisher interface {
	Publish(env events.Envelope)
}

// Hub tracks connections and their room membership, delivering events
// locally and mirroring every delivery over the bridge. It implements both
// the session coordinator's broadcast surface and the bridge's local sink.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	bridge BridgePublisher
	logger zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  log.With().Str("component", "hub").Logger(),
	}
}

// SetBridge attaches the cross-process relay. Call before serving traffic.
func (h *Hub) SetBridge(bridge BridgePublisher) {
	h.bridge = bridge
}

func (h *Hub) Register(cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl.ID] = cl
	metrics.ConnectedClients.Inc()
}

func (h *Hub) Unregister(cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl.ID]; !ok {
		return
	}
	delete(h.clients, cl.ID)
	for roomID, members := range h.rooms {
		if _, ok := members[cl.ID]; ok {
			delete(members, cl.ID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	close(cl.Message)
	metrics.ConnectedClients.Dec()
}

func (h *Hub) Join(roomID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.clients[clientID]
	if !ok {
		return
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[clientID] = cl
	cl.setRoom(roomID)
}

func (h *Hub) Leave(roomID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if cl, ok := h.clients[clientID]; ok {
		cl.setRoom("")
	}
}

func (h *Hub) ToRoom(roomID string, event game.Event) {
	h.deliverRoom(roomID, "", event)
	if h.bridge != nil {
		h.bridge.Publish(events.Envelope{RoomID: roomID, Event: event})
	}
}

func (h *Hub) ToRoomExcept(roomID, exceptID string, event game.Event) {
	h.deliverRoom(roomID, exceptID, event)
	if h.bridge != nil {
		h.bridge.Publish(events.Envelope{RoomID: roomID, ExceptID: exceptID, Event: event})
	}
}

func (h *Hub) ToClient(clientID string, event game.Event) {
	delivered := h.deliverClient(clientID, event)
	// Only relay when the connection lives on another process.
	if !delivered && h.bridge != nil {
		h.bridge.Publish(events.Envelope{TargetID: clientID, Event: event})
	}
}

// DeliverRoom and DeliverClient receive bridged envelopes from other
// processes: local delivery only, never re-published.
func (h *Hub) DeliverRoom(roomID, exceptID string, event game.Event) {
	h.deliverRoom(roomID, exceptID, event)
}

func (h *Hub) DeliverClient(clientID string, event game.Event) {
	h.deliverClient(clientID, event)
}

func (h *Hub) deliverRoom(roomID, exceptID string, event game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, cl := range h.rooms[roomID] {
		if id == exceptID {
			continue
		}
		h.send(cl, event)
	}
}

func (h *Hub) deliverClient(clientID string, event game.Event) bool {
	// Hold the lock through the send: Unregister closes the channel under
	// the write lock, so releasing early would allow a send on a closed
	// channel.
	h.mu.RLock()
	defer h.mu.RUnlock()
	cl, ok := h.clients[clientID]
	if !ok {
		return false
	}
	h.send(cl, event)
	return true
}

func (h *Hub) send(cl *Client, event game.Event) {
	select {
	case cl.Message <- event:
	default:
		// Client is too slow – drop the message
		h.logger.Warn().Str("client", cl.ID).Str("event", event.Type).Msg("client buffer full, dropping message")
	}
}
