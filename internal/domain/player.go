package domain

import (
	"strings"
	"time"
)

const (
	DefaultPlayerName = "Player"
	MaxNameLength     = 20
)

// Player is a room member keyed by its connection id. The id doubles as the
// player's identity for the lifetime of the connection.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	// JoinedAt orders rotation snapshots; hash backings return fields unordered.
	JoinedAt int64 `json:"joinedAt"`
}

func NewPlayer(id, name string) *Player {
	name = sanitizeName(name)
	return &Player{
		ID:       id,
		Name:     name,
		Score:    0,
		JoinedAt: time.Now().UnixMilli(),
	}
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultPlayerName
	}
	runes := []rune(name)
	if len(runes) > MaxNameLength {
		return string(runes[:MaxNameLength])
	}
	return name
}

// PlayerInfo is the roster projection broadcast to clients: never more than
// name, score and id.
type PlayerInfo struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	ID    string `json:"id"`
}

func (p *Player) Info() PlayerInfo {
	return PlayerInfo{Name: p.Name, Score: p.Score, ID: p.ID}
}
