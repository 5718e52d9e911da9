package game

import (
	"context"
	"fmt"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

const roomIDLength = 6

// CreateRoom creates the room when it does not exist yet and joins the
// caller either way (idempotent create-or-join). Fresh rooms start idle with
// any stale player or stroke data under the id cleared.
func (s *Service) CreateRoom(ctx context.Context, connID, name, requestedID string) (string, error) {
	roomID := requestedID
	if roomID == "" {
		roomID = uuid.NewString()[:roomIDLength]
	}

	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return "", fmt.Errorf("create room %s: %w", roomID, err)
	}
	if meta == nil {
		room := domain.NewRoom(roomID)
		room.MaxRounds = s.defaults.MaxRounds
		if err := s.store.SetRoom(ctx, room); err != nil {
			return "", fmt.Errorf("create room %s: %w", roomID, err)
		}
		if err := s.store.DelAllPlayers(ctx, roomID); err != nil {
			return "", err
		}
		if err := s.store.DelStrokes(ctx, roomID); err != nil {
			return "", err
		}
		metrics.ActiveRooms.Inc()
		s.publishLifecycle(ctx, domain.EventRoomCreated, roomID, nil)
		s.logger.Info().Str("room", roomID).Msg("room created")
	}

	player := domain.NewPlayer(connID, name)
	if err := s.store.SetPlayer(ctx, roomID, player); err != nil {
		return "", err
	}

	s.bc.Join(roomID, connID)
	s.publishLifecycle(ctx, domain.EventPlayerJoined, roomID, map[string]any{"player": player.Name})

	roster, err := s.playersList(ctx, roomID)
	if err != nil {
		return "", err
	}
	s.bc.ToRoom(roomID, NewPlayersUpdate(roster))
	s.bc.ToRoom(roomID, NewSystemMessage(player.Name+" joined the room."))

	return roomID, nil
}

// JoinRoom adds the caller to an existing room. When a turn is live it
// replays the current turn state privately so latecomers synchronize without
// waiting for the next tick.
func (s *Service) JoinRoom(ctx context.Context, connID, name, roomID string) error {
	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if meta == nil {
		return domain.ErrRoomNotFound
	}

	player := domain.NewPlayer(connID, name)
	if err := s.store.SetPlayer(ctx, roomID, player); err != nil {
		return err
	}
	s.bc.Join(roomID, connID)

	roster, err := s.playersList(ctx, roomID)
	if err != nil {
		return err
	}
	s.bc.ToClient(connID, NewPlayersUpdate(roster))

	if meta.Turn != nil {
		if drawer, ok := meta.Drawer(); ok {
			s.bc.ToClient(connID, NewTurnStart(drawer, meta.TimeLeft, meta.Round, 0))
			if drawer != connID {
				s.bc.ToClient(connID, NewWordMask(meta.MaskedWord(), meta.TimeLeft))
			}
		}
	}

	s.bc.ToRoom(roomID, NewPlayersUpdate(roster))
	s.bc.ToRoom(roomID, NewSystemMessage(player.Name+" joined the room."))
	s.publishLifecycle(ctx, domain.EventPlayerJoined, roomID, map[string]any{"player": player.Name})

	return nil
}

// Leave removes the player, tearing the room down when it empties and
// force-ending an in-progress game left with fewer than two players.
// Transport-detected disconnects take the same path.
func (s *Service) Leave(ctx context.Context, roomID, connID string) error {
	playerName := "Unknown"
	if player, err := s.store.GetPlayer(ctx, roomID, connID); err == nil && player != nil {
		playerName = player.Name
	}

	if err := s.store.DelPlayer(ctx, roomID, connID); err != nil {
		return err
	}
	s.bc.Leave(roomID, connID)

	remaining, err := s.playersList(ctx, roomID)
	if err != nil {
		return err
	}

	if len(remaining) == 0 {
		s.logger.Info().Str("room", roomID).Msg("room empty, tearing down")
		s.cancelTimer(roomID)
		if err := s.store.DelRoom(ctx, roomID); err != nil {
			return err
		}
		if err := s.store.DelAllPlayers(ctx, roomID); err != nil {
			return err
		}
		if err := s.store.DelStrokes(ctx, roomID); err != nil {
			return err
		}
		metrics.ActiveRooms.Dec()
		s.publishLifecycle(ctx, domain.EventRoomDeleted, roomID, nil)
		return nil
	}

	s.bc.ToRoom(roomID, NewPlayersUpdate(remaining))
	s.bc.ToRoom(roomID, NewSystemMessage(playerName+" left the room."))
	s.publishLifecycle(ctx, domain.EventPlayerLeft, roomID, map[string]any{"player": playerName})

	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if meta != nil && meta.Started() && len(remaining) < domain.MinPlayersToStart {
		s.logger.Info().Str("room", roomID).Msg("only one player left, ending game")
		s.bc.ToRoom(roomID, NewSystemMessage("Game ended because only one player is left."))
		s.bc.ToRoom(roomID, NewGameEnd(remaining))

		meta.ResetToIdle()
		s.cancelTimer(roomID)

		if err := s.store.SetRoom(ctx, meta); err != nil {
			return err
		}
		if err := s.store.DelStrokes(ctx, roomID); err != nil {
			return err
		}
		s.bc.ToRoom(roomID, NewClear())
		metrics.GamesCompleted.Inc()
		s.publishLifecycle(ctx, domain.EventGameEnded, roomID, map[string]any{"reason": "insufficient players"})
	}

	return nil
}

// StateSnapshot is the get-state reply. WordPlain is only populated for the
// current drawer.
type StateSnapshot struct {
	Players      []domain.PlayerInfo `json:"players"`
	GameStarted  bool                `json:"gameStarted"`
	CurrentRound int                 `json:"currentRound"`
	MaxRounds    int                 `json:"maxRounds"`
	TimeLeft     int                 `json:"timeLeft"`
	WordMask     string              `json:"wordMask"`
	IsDrawer     bool                `json:"isDrawer"`
	WordPlain    string              `json:"wordPlain,omitempty"`
	DrawerName   string              `json:"drawerName,omitempty"`
}

// State projects the room for one caller and re-broadcasts the shared
// room:state summary.
func (s *Service) State(ctx context.Context, roomID, connID string) (*StateSnapshot, error) {
	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, domain.ErrRoomNotFound
	}

	roster, err := s.playersList(ctx, roomID)
	if err != nil {
		return nil, err
	}

	snapshot := &StateSnapshot{
		Players:      roster,
		GameStarted:  meta.Started(),
		CurrentRound: meta.Round,
		MaxRounds:    meta.MaxRounds,
		TimeLeft:     meta.TimeLeft,
		WordMask:     meta.MaskedWord(),
		IsDrawer:     meta.IsDrawer(connID),
	}

	if snapshot.IsDrawer && meta.Turn != nil {
		snapshot.WordPlain = meta.Turn.Word
	}
	if drawer, ok := meta.Drawer(); ok {
		snapshot.DrawerName = "Unknown"
		for _, p := range roster {
			if p.ID == drawer {
				snapshot.DrawerName = p.Name
				break
			}
		}
	}

	s.bc.ToRoom(roomID, NewRoomState(meta.MaxRounds, meta.Round, meta.Started()))

	return snapshot, nil
}

// playersList projects the roster down to what clients may see.
func (s *Service) playersList(ctx context.Context, roomID string) ([]domain.PlayerInfo, error) {
	players, err := s.store.GetAllPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	infos := make([]domain.PlayerInfo, 0, len(players))
	for _, p := range players {
		infos = append(infos, p.Info())
	}
	return infos, nil
}
