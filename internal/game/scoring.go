package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/metrics"
)

const (
	guessPointsFloor = 50
	// The award curve divides by a fixed 60 regardless of the configured
	// turn duration, so longer turns top out below 100.
	guessPointsDivisor = 60
)

// guessPoints converts remaining seconds into an award, clamped to a floor
// so even a buzzer-beater is worth something.
func guessPoints(timeLeft int) int {
	points := 100 * timeLeft / guessPointsDivisor
	if points < guessPointsFloor {
		return guessPointsFloor
	}
	return points
}

// HandleChat relays a chat line, intercepting it as a guess while a turn is
// live. The drawer cannot chat mid-turn. A correct guess is acknowledged
// privately (the answer never reaches the room), awards the guesser and the
// drawer, and ends the turn early once every non-drawer has it.
func (s *Service) HandleChat(ctx context.Context, roomID, connID, message string) error {
	sender, err := s.store.GetPlayer(ctx, roomID, connID)
	if err != nil {
		return err
	}
	if sender == nil {
		return domain.ErrNotInRoom
	}

	meta, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	if meta != nil && meta.Turn != nil {
		if meta.IsDrawer(connID) {
			metrics.InboundEvents.WithLabelValues("chat:rejected").Inc()
			return domain.ErrDrawerCannotChat
		}
		if strings.EqualFold(strings.TrimSpace(message), strings.TrimSpace(meta.Turn.Word)) {
			return s.handleCorrectGuess(ctx, meta, sender, message)
		}
		metrics.Guesses.WithLabelValues("incorrect").Inc()
	}

	s.bc.ToRoom(roomID, NewChatMessage(sender.Name, message, sender.ID, false))
	return nil
}

func (s *Service) handleCorrectGuess(ctx context.Context, meta *domain.Room, sender *domain.Player, message string) error {
	roomID := meta.ID

	// Repeat guesses are acknowledged to the sender alone; no points, no
	// room traffic that would leak the answer.
	if meta.Turn.HasGuessed(sender.ID) {
		metrics.Guesses.WithLabelValues("duplicate").Inc()
		s.bc.ToClient(sender.ID, NewChatMessage(sender.Name, message, sender.ID, true))
		return nil
	}

	points := guessPoints(meta.TimeLeft)
	sender.Score += points
	if err := s.store.SetPlayer(ctx, roomID, sender); err != nil {
		return err
	}

	if drawerID, ok := meta.Drawer(); ok {
		drawer, err := s.store.GetPlayer(ctx, roomID, drawerID)
		if err != nil {
			return err
		}
		if drawer != nil {
			drawer.Score += points / 2
			if err := s.store.SetPlayer(ctx, roomID, drawer); err != nil {
				return err
			}
		}
	}

	meta.Turn.CorrectGuessers = append(meta.Turn.CorrectGuessers, sender.ID)
	if err := s.store.SetRoom(ctx, meta); err != nil {
		return err
	}
	metrics.Guesses.WithLabelValues("correct").Inc()

	s.bc.ToClient(sender.ID, NewChatMessage(sender.Name, message, sender.ID, true))
	s.bc.ToRoom(roomID, NewSystemMessage(fmt.Sprintf("%s guessed the word!", sender.Name)))

	roster, err := s.playersList(ctx, roomID)
	if err != nil {
		return err
	}
	s.bc.ToRoom(roomID, NewPlayersUpdate(roster))

	if s.everyoneGuessed(ctx, meta) {
		s.bc.ToRoom(roomID, NewSystemMessage(fmt.Sprintf("Everyone guessed the word! It was %q", meta.Turn.Word)))
		s.EndTurn(ctx, roomID)
	}
	return nil
}

// everyoneGuessed reports whether every non-drawer in the room has guessed
// the current word.
func (s *Service) everyoneGuessed(ctx context.Context, meta *domain.Room) bool {
	players, err := s.store.GetAllPlayers(ctx, meta.ID)
	if err != nil {
		return false
	}
	drawerID, _ := meta.Drawer()
	for _, p := range players {
		if p.ID == drawerID {
			continue
		}
		if !meta.Turn.HasGuessed(p.ID) {
			return false
		}
	}
	return true
}
