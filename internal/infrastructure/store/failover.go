package store

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Failover serves every call from the primary backing until it observes a
// connection-class failure, then flips permanently to the fallback. Call
// sites see one Store and never branch; the failing call itself is served
// from the fallback, so no inbound event fails because of a store outage.
type Failover struct {
	primary  domain.Store
	fallback domain.Store
	degraded atomic.Bool
}

func NewFailover(primary, fallback domain.Store) *Failover {
	return &Failover{primary: primary, fallback: fallback}
}

// Degraded reports whether the primary has been abandoned.
func (f *Failover) Degraded() bool {
	return f.degraded.Load()
}

// trip marks the store degraded when err looks like a lost backend rather
// than a data error. Returns true when the caller should retry on the
// fallback.
func (f *Failover) trip(err error) bool {
	if err == nil || !isConnErr(err) {
		return false
	}
	if f.degraded.CompareAndSwap(false, true) {
		metrics.StoreFallbacks.Inc()
		log.Warn().Err(err).Msg("shared store unreachable, continuing on in-process backing")
	}
	return true
}

func isConnErr(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (f *Failover) SetRoom(ctx context.Context, room *domain.Room) error {
	if f.degraded.Load() {
		return f.fallback.SetRoom(ctx, room)
	}
	err := f.primary.SetRoom(ctx, room)
	if f.trip(err) {
		return f.fallback.SetRoom(ctx, room)
	}
	return err
}

func (f *Failover) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if f.degraded.Load() {
		return f.fallback.GetRoom(ctx, roomID)
	}
	room, err := f.primary.GetRoom(ctx, roomID)
	if f.trip(err) {
		return f.fallback.GetRoom(ctx, roomID)
	}
	return room, err
}

func (f *Failover) DelRoom(ctx context.Context, roomID string) error {
	if f.degraded.Load() {
		return f.fallback.DelRoom(ctx, roomID)
	}
	err := f.primary.DelRoom(ctx, roomID)
	if f.trip(err) {
		return f.fallback.DelRoom(ctx, roomID)
	}
	return err
}

func (f *Failover) SetPlayer(ctx context.Context, roomID string, player *domain.Player) error {
	if f.degraded.Load() {
		return f.fallback.SetPlayer(ctx, roomID, player)
	}
	err := f.primary.SetPlayer(ctx, roomID, player)
	if f.trip(err) {
		return f.fallback.SetPlayer(ctx, roomID, player)
	}
	return err
}

func (f *Failover) GetPlayer(ctx context.Context, roomID, playerID string) (*domain.Player, error) {
	if f.degraded.Load() {
		return f.fallback.GetPlayer(ctx, roomID, playerID)
	}
	p, err := f.primary.GetPlayer(ctx, roomID, playerID)
	if f.trip(err) {
		return f.fallback.GetPlayer(ctx, roomID, playerID)
	}
	return p, err
}

func (f *Failover) GetAllPlayers(ctx context.Context, roomID string) ([]*domain.Player, error) {
	if f.degraded.Load() {
		return f.fallback.GetAllPlayers(ctx, roomID)
	}
	players, err := f.primary.GetAllPlayers(ctx, roomID)
	if f.trip(err) {
		return f.fallback.GetAllPlayers(ctx, roomID)
	}
	return players, err
}

func (f *Failover) DelPlayer(ctx context.Context, roomID, playerID string) error {
	if f.degraded.Load() {
		return f.fallback.DelPlayer(ctx, roomID, playerID)
	}
	err := f.primary.DelPlayer(ctx, roomID, playerID)
	if f.trip(err) {
		return f.fallback.DelPlayer(ctx, roomID, playerID)
	}
	return err
}

func (f *Failover) DelAllPlayers(ctx context.Context, roomID string) error {
	if f.degraded.Load() {
		return f.fallback.DelAllPlayers(ctx, roomID)
	}
	err := f.primary.DelAllPlayers(ctx, roomID)
	if f.trip(err) {
		return f.fallback.DelAllPlayers(ctx, roomID)
	}
	return err
}

func (f *Failover) AddStroke(ctx context.Context, roomID string, stroke *domain.Stroke) error {
	if f.degraded.Load() {
		return f.fallback.AddStroke(ctx, roomID, stroke)
	}
	err := f.primary.AddStroke(ctx, roomID, stroke)
	if f.trip(err) {
		return f.fallback.AddStroke(ctx, roomID, stroke)
	}
	return err
}

func (f *Failover) GetStrokes(ctx context.Context, roomID string) ([]*domain.Stroke, error) {
	if f.degraded.Load() {
		return f.fallback.GetStrokes(ctx, roomID)
	}
	strokes, err := f.primary.GetStrokes(ctx, roomID)
	if f.trip(err) {
		return f.fallback.GetStrokes(ctx, roomID)
	}
	return strokes, err
}

func (f *Failover) UpdateStroke(ctx context.Context, roomID string, stroke *domain.Stroke) (bool, error) {
	if f.degraded.Load() {
		return f.fallback.UpdateStroke(ctx, roomID, stroke)
	}
	found, err := f.primary.UpdateStroke(ctx, roomID, stroke)
	if f.trip(err) {
		return f.fallback.UpdateStroke(ctx, roomID, stroke)
	}
	return found, err
}

func (f *Failover) ReplaceStrokes(ctx context.Context, roomID string, strokes []*domain.Stroke) error {
	if f.degraded.Load() {
		return f.fallback.ReplaceStrokes(ctx, roomID, strokes)
	}
	err := f.primary.ReplaceStrokes(ctx, roomID, strokes)
	if f.trip(err) {
		return f.fallback.ReplaceStrokes(ctx, roomID, strokes)
	}
	return err
}

func (f *Failover) DelStrokes(ctx context.Context, roomID string) error {
	if f.degraded.Load() {
		return f.fallback.DelStrokes(ctx, roomID)
	}
	err := f.primary.DelStrokes(ctx, roomID)
	if f.trip(err) {
		return f.fallback.DelStrokes(ctx, roomID)
	}
	return err
}
