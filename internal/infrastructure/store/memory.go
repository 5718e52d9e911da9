package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
)

// Memory is the in-process Store backing. Records are JSON round-tripped on
// every read and write so callers observe the same value-copy semantics as
// the Redis backing: a mutation on a returned record never leaks into the
// store without an explicit Set.
type Memory struct {
	mu      sync.RWMutex
	rooms   map[string][]byte
	players map[string]map[string][]byte
	strokes map[string][][]byte
}

func NewMemory() *Memory {
	return &Memory{
		rooms:   make(map[string][]byte),
		players: make(map[string]map[string][]byte),
		strokes: make(map[string][][]byte),
	}
}

func (m *Memory) SetRoom(_ context.Context, room *domain.Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = raw
	return nil
}

func (m *Memory) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	m.mu.RLock()
	raw, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (m *Memory) DelRoom(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *Memory) SetPlayer(_ context.Context, roomID string, player *domain.Player) error {
	raw, err := json.Marshal(player)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	roomPlayers, ok := m.players[roomID]
	if !ok {
		roomPlayers = make(map[string][]byte)
		m.players[roomID] = roomPlayers
	}
	roomPlayers[player.ID] = raw
	return nil
}

func (m *Memory) GetPlayer(_ context.Context, roomID, playerID string) (*domain.Player, error) {
	m.mu.RLock()
	raw, ok := m.players[roomID][playerID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var p domain.Player
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *Memory) GetAllPlayers(_ context.Context, roomID string) ([]*domain.Player, error) {
	m.mu.RLock()
	raws := make([][]byte, 0, len(m.players[roomID]))
	for _, raw := range m.players[roomID] {
		raws = append(raws, raw)
	}
	m.mu.RUnlock()

	players := make([]*domain.Player, 0, len(raws))
	for _, raw := range raws {
		var p domain.Player
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	sortByJoin(players)
	return players, nil
}

func (m *Memory) DelPlayer(_ context.Context, roomID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if roomPlayers, ok := m.players[roomID]; ok {
		delete(roomPlayers, playerID)
		if len(roomPlayers) == 0 {
			delete(m.players, roomID)
		}
	}
	return nil
}

func (m *Memory) DelAllPlayers(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, roomID)
	return nil
}

func (m *Memory) AddStroke(_ context.Context, roomID string, stroke *domain.Stroke) error {
	raw, err := json.Marshal(stroke)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strokes[roomID] = append(m.strokes[roomID], raw)
	return nil
}

func (m *Memory) GetStrokes(_ context.Context, roomID string) ([]*domain.Stroke, error) {
	m.mu.RLock()
	raws := make([][]byte, len(m.strokes[roomID]))
	copy(raws, m.strokes[roomID])
	m.mu.RUnlock()

	strokes := make([]*domain.Stroke, 0, len(raws))
	for _, raw := range raws {
		var s domain.Stroke
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		strokes = append(strokes, &s)
	}
	return strokes, nil
}

func (m *Memory) UpdateStroke(_ context.Context, roomID string, stroke *domain.Stroke) (bool, error) {
	raw, err := json.Marshal(stroke)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.strokes[roomID] {
		var s domain.Stroke
		if err := json.Unmarshal(existing, &s); err != nil {
			return false, err
		}
		if s.ID == stroke.ID {
			m.strokes[roomID][i] = raw
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ReplaceStrokes(_ context.Context, roomID string, strokes []*domain.Stroke) error {
	raws := make([][]byte, 0, len(strokes))
	for _, s := range strokes {
		raw, err := json.Marshal(s)
		if err != nil {
			return err
		}
		raws = append(raws, raw)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(raws) == 0 {
		delete(m.strokes, roomID)
		return nil
	}
	m.strokes[roomID] = raws
	return nil
}

func (m *Memory) DelStrokes(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.strokes, roomID)
	return nil
}

func sortByJoin(players []*domain.Player) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].JoinedAt != players[j].JoinedAt {
			return players[i].JoinedAt < players[j].JoinedAt
		}
		return players[i].ID < players[j].ID
	})
}
