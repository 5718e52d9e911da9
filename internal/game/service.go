package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Broadcaster fans events out to connections. The ws hub implements it for a
// single process; with a bridge attached, deliveries reach connections held
// by other processes too.
type Broadcaster interface {
	// Join and Leave manage a connection's broadcast-group membership.
	Join(roomID, clientID string)
	Leave(roomID, clientID string)

	ToRoom(roomID string, event Event)
	ToRoomExcept(roomID, exceptID string, event Event)
	ToClient(clientID string, event Event)
}

// LifecyclePublisher receives room lifecycle notifications (created, deleted,
// game started/ended) for the audit trail. Implementations must not block the
// caller on broker round trips.
type LifecyclePublisher interface {
	Publish(ctx context.Context, event domain.GameEventType, roomID string, metadata map[string]any)
}

// Defaults seed new rooms; individual start-game requests may override them.
type Defaults struct {
	MaxRounds    int
	TurnDuration int
}

// turnEndDelay is the pause between turn:end and the next rotation, giving
// clients time to display the revealed word.
const turnEndDelay = 2 * time.Second

// Service is the session coordinator: room lifecycle, the turn state
// machine, scoring and the stroke log, all mediated through the Store. It
// holds no room state of its own beyond the per-room timer handles.
type Service struct {
	store     domain.Store
	bc        Broadcaster
	lifecycle LifecyclePublisher // may be nil
	clock     clockwork.Clock
	defaults  Defaults
	logger    zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	// timers holds at most one cancellable handle per room: either the live
	// countdown or the pending inter-turn delay, never both.
	timersMu sync.Mutex
	timers   map[string]context.CancelFunc
}

type Option func(*Service)

// WithClock substitutes the wall clock, letting tests drive countdowns with
// a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithRand substitutes the randomness source for deterministic word options
// and letter reveals.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithLifecyclePublisher attaches the audit-event publisher.
func WithLifecyclePublisher(p LifecyclePublisher) Option {
	return func(s *Service) { s.lifecycle = p }
}

func NewService(store domain.Store, bc Broadcaster, defaults Defaults, opts ...Option) *Service {
	if defaults.MaxRounds <= 0 {
		defaults.MaxRounds = domain.DefaultMaxRounds
	}
	if defaults.TurnDuration <= 0 {
		defaults.TurnDuration = domain.DefaultTurnDuration
	}

	s := &Service{
		store:    store,
		bc:       bc,
		clock:    clockwork.NewRealClock(),
		defaults: defaults,
		logger:   log.With().Str("component", "game").Logger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		timers:   make(map[string]context.CancelFunc),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// replaceTimer cancels any handle held for the room and installs a fresh
// one, returning its context. Guarantees the single-timer-per-room invariant.
func (s *Service) replaceTimer(roomID string) context.Context {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if cancel, ok := s.timers[roomID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.timers[roomID] = cancel
	return ctx
}

// cancelTimer drops the room's handle, if any. Safe to call for rooms that
// never had one.
func (s *Service) cancelTimer(roomID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if cancel, ok := s.timers[roomID]; ok {
		cancel()
		delete(s.timers, roomID)
	}
}

func (s *Service) publishLifecycle(ctx context.Context, event domain.GameEventType, roomID string, metadata map[string]any) {
	if s.lifecycle == nil {
		return
	}
	s.lifecycle.Publish(ctx, event, roomID, metadata)
}

func (s *Service) randIntn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}
