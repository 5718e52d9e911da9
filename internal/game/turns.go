package game

import (
	"context"
	"time"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/game/words"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/metrics"
)

const wordOptionCount = 3

// StartGame validates the roster, resets room and score state, and rotates
// in the first drawer. With fewer than two players nothing is mutated.
func (s *Service) StartGame(ctx context.Context, roomID string, maxRounds, turnDuration int) error {
	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if meta == nil {
		return domain.ErrRoomNotFound
	}

	roster, err := s.store.GetAllPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	if len(roster) < domain.MinPlayersToStart {
		s.logger.Warn().Str("room", roomID).Int("players", len(roster)).Msg("not enough players to start game")
		return domain.ErrInsufficientPlayers
	}

	if maxRounds <= 0 {
		maxRounds = s.defaults.MaxRounds
	}
	if turnDuration <= 0 {
		turnDuration = s.defaults.TurnDuration
	}

	meta.ResetToIdle()
	meta.MaxRounds = maxRounds
	meta.TurnDuration = turnDuration
	s.cancelTimer(roomID)

	if err := s.store.SetRoom(ctx, meta); err != nil {
		return err
	}
	if err := s.resetScores(ctx, roomID); err != nil {
		return err
	}

	s.logger.Info().Str("room", roomID).Int("maxRounds", maxRounds).Int("turnDuration", turnDuration).Msg("game starting")
	s.publishLifecycle(ctx, domain.EventGameStarted, roomID, map[string]any{
		"maxRounds":    maxRounds,
		"turnDuration": turnDuration,
	})

	s.StartNextTurn(ctx, roomID)
	return nil
}

// StartNextTurn advances drawer rotation. The order is re-derived from the
// live roster at the moment of rotation, so a player who joined mid-round is
// picked up on the next pass. A wrap back to index 0 increments the round;
// overflowing maxRounds ends the game instead of starting a turn.
func (s *Service) StartNextTurn(ctx context.Context, roomID string) {
	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil || meta == nil {
		return
	}

	players, err := s.store.GetAllPlayers(ctx, roomID)
	if err != nil || len(players) == 0 {
		return
	}
	order := make([]string, 0, len(players))
	for _, p := range players {
		order = append(order, p.ID)
	}

	prev := meta.DrawerIndex
	next := (prev + 1) % len(order)

	if !meta.Started() {
		if len(order) < domain.MinPlayersToStart {
			s.logger.Warn().Str("room", roomID).Int("players", len(order)).Msg("not enough players for first turn")
			return
		}
		meta.Round = 1
	} else if prev == len(order)-1 && next == 0 {
		meta.Round++
		s.logger.Debug().Str("room", roomID).Int("round", meta.Round).Msg("round completed")
	}

	if meta.Round > meta.MaxRounds {
		roster, err := s.playersList(ctx, roomID)
		if err != nil {
			return
		}
		s.bc.ToRoom(roomID, NewGameEnd(roster))
		meta.ResetToIdle()
		if err := s.store.SetRoom(ctx, meta); err != nil {
			s.logger.Error().Err(err).Str("room", roomID).Msg("failed to persist game end")
		}
		metrics.GamesCompleted.Inc()
		s.publishLifecycle(ctx, domain.EventGameEnded, roomID, map[string]any{"reason": "rounds exhausted"})
		s.logger.Info().Str("room", roomID).Msg("game over")
		return
	}

	meta.Order = order
	meta.DrawerIndex = next
	meta.TimeLeft = meta.Duration()
	meta.Phase = domain.PhaseChoosing
	meta.Turn = nil
	drawer := order[next]

	if err := s.store.SetRoom(ctx, meta); err != nil {
		s.logger.Error().Err(err).Str("room", roomID).Msg("failed to persist turn rotation")
		return
	}

	s.bc.ToRoom(roomID, NewClear())
	if err := s.store.DelStrokes(ctx, roomID); err != nil {
		s.logger.Error().Err(err).Str("room", roomID).Msg("failed to purge strokes")
	}

	s.bc.ToRoom(roomID, NewTurnStart(drawer, meta.TimeLeft, meta.Round, meta.MaxRounds))
	s.bc.ToClient(drawer, NewWordOptions(s.sampleWords(wordOptionCount)))
	metrics.TurnsStarted.Inc()

	s.logger.Debug().
		Str("room", roomID).
		Str("drawer", drawer).
		Int("round", meta.Round).
		Int("maxRounds", meta.MaxRounds).
		Msg("turn starting")
}

// SelectWord arms the countdown. Calls from anyone but the current drawer,
// or outside the choosing phase, are dropped without acknowledgment.
func (s *Service) SelectWord(ctx context.Context, roomID, connID, word string) {
	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil || meta == nil {
		return
	}
	// The previous drawer stays IsDrawer through the intermission; a late
	// selection must not displace the pending rotation.
	if meta.Phase != domain.PhaseChoosing || !meta.IsDrawer(connID) {
		return
	}

	meta.Turn = &domain.Turn{Word: word}
	meta.Phase = domain.PhaseDrawing
	if err := s.store.SetRoom(ctx, meta); err != nil {
		s.logger.Error().Err(err).Str("room", roomID).Msg("failed to persist word selection")
		return
	}

	s.bc.ToRoom(roomID, NewWordMask(meta.MaskedWord(), meta.TimeLeft))

	countdownCtx := s.replaceTimer(roomID)
	go s.runCountdown(countdownCtx, roomID)
}

// runCountdown drives one turn's ticks. It exits when its handle is
// superseded or cancelled, or when the turn is over.
func (s *Service) runCountdown(ctx context.Context, roomID string) {
	ticker := s.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if s.tick(roomID) {
				return
			}
		}
	}
}

// tick handles one second of countdown. Returns true when the countdown
// should stop: turn over, or the room/turn vanished underneath the timer.
func (s *Service) tick(roomID string) bool {
	ctx := context.Background()

	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil || meta == nil || meta.Turn == nil {
		return true
	}

	meta.TimeLeft--
	if err := s.store.SetRoom(ctx, meta); err != nil {
		s.logger.Error().Err(err).Str("room", roomID).Msg("failed to persist tick")
		return false
	}
	s.bc.ToRoom(roomID, NewTimerUpdate(meta.TimeLeft))

	// Reveal checkpoints compare by exact equality so a value skipped by
	// timer drift never fires late.
	duration := meta.Duration()
	if meta.TimeLeft == duration*2/3 || meta.TimeLeft == duration/3 {
		s.revealLetter(ctx, meta)
	}

	if meta.TimeLeft <= 0 {
		s.EndTurn(ctx, roomID)
		return true
	}
	return false
}

// revealLetter discloses one random not-yet-revealed, non-space letter and
// re-broadcasts the mask. No-op when everything is already revealed.
func (s *Service) revealLetter(ctx context.Context, meta *domain.Room) {
	candidates := domain.RevealCandidates(meta.Turn.Word, meta.Turn.Revealed)
	if len(candidates) == 0 {
		return
	}
	idx := candidates[s.randIntn(len(candidates))]
	meta.Turn.Revealed = append(meta.Turn.Revealed, idx)

	if err := s.store.SetRoom(ctx, meta); err != nil {
		s.logger.Error().Err(err).Str("room", meta.ID).Msg("failed to persist reveal")
		return
	}
	s.bc.ToRoom(meta.ID, NewWordMask(meta.MaskedWord(), meta.TimeLeft))
}

// EndTurn terminates the active turn: reveal the word, clear turn state,
// and schedule the next rotation. Safe to invoke twice in quick succession
// (timer expiry racing all-correct detection): the loser observes the turn
// already cleared and returns without re-broadcasting.
func (s *Service) EndTurn(ctx context.Context, roomID string) {
	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil || meta == nil {
		s.cancelTimer(roomID)
		return
	}
	if meta.Turn == nil {
		return
	}

	s.cancelTimer(roomID)

	s.bc.ToRoom(roomID, NewClear())
	if err := s.store.DelStrokes(ctx, roomID); err != nil {
		s.logger.Error().Err(err).Str("room", roomID).Msg("failed to purge strokes")
	}

	s.bc.ToRoom(roomID, NewTurnEnd(meta.Turn.Word))

	meta.Turn = nil
	meta.Phase = domain.PhaseIntermission
	if err := s.store.SetRoom(ctx, meta); err != nil {
		s.logger.Error().Err(err).Str("room", roomID).Msg("failed to persist turn end")
		return
	}

	delayCtx := s.replaceTimer(roomID)
	go func() {
		timer := s.clock.NewTimer(turnEndDelay)
		defer timer.Stop()
		select {
		case <-delayCtx.Done():
		case <-timer.Chan():
			s.StartNextTurn(context.Background(), roomID)
		}
	}()
}

// resetScores zeroes everyone and broadcasts the fresh roster.
func (s *Service) resetScores(ctx context.Context, roomID string) error {
	players, err := s.store.GetAllPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	for _, p := range players {
		p.Score = 0
		if err := s.store.SetPlayer(ctx, roomID, p); err != nil {
			return err
		}
	}

	roster, err := s.playersList(ctx, roomID)
	if err != nil {
		return err
	}
	s.bc.ToRoom(roomID, NewPlayersUpdate(roster))
	return nil
}

func (s *Service) sampleWords(n int) []string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return words.Sample(s.rng, n)
}
