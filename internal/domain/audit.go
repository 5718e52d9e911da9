package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type GameEventType string

const (
	EventRoomCreated  GameEventType = "room_created"
	EventRoomDeleted  GameEventType = "room_deleted"
	EventPlayerJoined GameEventType = "player_joined"
	EventPlayerLeft   GameEventType = "player_left"
	EventGameStarted  GameEventType = "game_started"
	EventGameEnded    GameEventType = "game_ended"
)

// GameAuditLog records room lifecycle events for operational forensics. It
// deliberately stores no per-player results; completed game history is not
// persisted.
type GameAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomID    string         `bson:"room_id" json:"roomId"`
	EventType GameEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type GameAuditRepository interface {
	Log(ctx context.Context, log *GameAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]GameAuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewAuditLog(roomID string, event GameEventType, metadata map[string]any) *GameAuditLog {
	return &GameAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: event,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
