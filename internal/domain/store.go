package domain

import "context"

// Store is the keyed state contract every game component goes through. All
// operations are atomic per key and safe for concurrent callers; a
// read-modify-write sequence is NOT atomic across the read and the write, so
// call sites re-fetch and accept last-write-wins at record granularity.
//
// Two backings satisfy identical semantics: an in-process map (one process)
// and Redis (shared across processes). GetRoom and GetPlayer return (nil, nil)
// for absent records. UpdateStroke with no matching id is a no-op returning
// false, not an error.
type Store interface {
	SetRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, roomID string) (*Room, error)
	DelRoom(ctx context.Context, roomID string) error

	SetPlayer(ctx context.Context, roomID string, player *Player) error
	GetPlayer(ctx context.Context, roomID, playerID string) (*Player, error)
	// GetAllPlayers returns the roster ordered by join time.
	GetAllPlayers(ctx context.Context, roomID string) ([]*Player, error)
	DelPlayer(ctx context.Context, roomID, playerID string) error
	DelAllPlayers(ctx context.Context, roomID string) error

	AddStroke(ctx context.Context, roomID string, stroke *Stroke) error
	GetStrokes(ctx context.Context, roomID string) ([]*Stroke, error)
	UpdateStroke(ctx context.Context, roomID string, stroke *Stroke) (bool, error)
	ReplaceStrokes(ctx context.Context, roomID string, strokes []*Stroke) error
	DelStrokes(ctx context.Context, roomID string) error
}
