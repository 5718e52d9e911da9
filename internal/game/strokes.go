package game

import (
	"context"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
)

// AppendStroke records a finished stroke and relays it to everyone except
// its author, who already drew it locally.
func (s *Service) AppendStroke(ctx context.Context, roomID, connID string, stroke *domain.Stroke) error {
	if err := s.store.AddStroke(ctx, roomID, stroke); err != nil {
		return err
	}
	s.bc.ToRoomExcept(roomID, connID, NewStroke(stroke))
	return nil
}

// UpdateStroke replaces a stroke in place, keyed by its id. Unlike a fresh
// stroke this goes to the whole room including the author, so everyone
// converges on the stored version. Unknown ids are dropped silently.
func (s *Service) UpdateStroke(ctx context.Context, roomID string, stroke *domain.Stroke) error {
	found, err := s.store.UpdateStroke(ctx, roomID, stroke)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Debug().Str("room", roomID).Str("stroke", stroke.ID).Msg("update for unknown stroke ignored")
		return nil
	}
	s.bc.ToRoom(roomID, NewStrokeUpdate(stroke))
	return nil
}

// UndoStroke removes the most recent stroke with the given id. Earlier
// strokes that happen to share the id stay put.
func (s *Service) UndoStroke(ctx context.Context, roomID, connID, strokeID string) error {
	strokes, err := s.store.GetStrokes(ctx, roomID)
	if err != nil {
		return err
	}

	removed := false
	for i := len(strokes) - 1; i >= 0; i-- {
		if strokes[i].ID == strokeID {
			strokes = append(strokes[:i], strokes[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		return nil
	}

	if err := s.store.ReplaceStrokes(ctx, roomID, strokes); err != nil {
		return err
	}
	s.bc.ToRoomExcept(roomID, connID, NewUndo(strokeID))
	return nil
}

// ClearCanvas wipes the stroke log and tells everyone but the initiator to
// blank their canvas.
func (s *Service) ClearCanvas(ctx context.Context, roomID, connID string) error {
	if err := s.store.DelStrokes(ctx, roomID); err != nil {
		return err
	}
	s.bc.ToRoomExcept(roomID, connID, NewClear())
	return nil
}
