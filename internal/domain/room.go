package domain

import (
	"errors"
	"strings"
)

const (
	DefaultMaxRounds    = 3
	DefaultTurnDuration = 60 // seconds
	MinPlayersToStart   = 2
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrNotInRoom           = errors.New("not in a room")
	ErrInsufficientPlayers = errors.New("not enough players to start game")
	ErrDrawerCannotChat    = errors.New("drawers cannot send messages during their turn")
)

// Phase is the turn state machine. A Room's Turn is non-nil exactly when the
// phase is PhaseDrawing, so "a word is active" and "a countdown is running"
// cannot diverge.
type Phase string

const (
	// PhaseIdle: game not started. Round, drawer index and turn carry no meaning.
	PhaseIdle Phase = "idle"
	// PhaseChoosing: a drawer has been selected and sent word options, no word yet.
	PhaseChoosing Phase = "choosing"
	// PhaseDrawing: word chosen, countdown running, progressive reveal active.
	PhaseDrawing Phase = "drawing"
	// PhaseIntermission: the gap between turn:end and the next rotation.
	PhaseIntermission Phase = "intermission"
)

// Turn holds the fields that only exist while a word is being drawn.
type Turn struct {
	Word            string   `json:"word"`
	Revealed        []int    `json:"revealed"`
	CorrectGuessers []string `json:"correctGuessers"`
}

func (t *Turn) HasGuessed(id string) bool {
	for _, g := range t.CorrectGuessers {
		if g == id {
			return true
		}
	}
	return false
}

// Room is the per-room metadata blob persisted in the store. Handlers must
// re-fetch it before every mutation; a held copy is never assumed current.
type Room struct {
	ID           string   `json:"roomId"`
	Round        int      `json:"round"`
	MaxRounds    int      `json:"maxRounds"`
	TurnDuration int      `json:"turnDuration"`
	DrawerIndex  int      `json:"currentDrawerIndex"`
	Order        []string `json:"order"`
	TimeLeft     int      `json:"timeLeft"`
	Phase        Phase    `json:"phase"`
	Turn         *Turn    `json:"turn,omitempty"`
}

func NewRoom(id string) *Room {
	return &Room{
		ID:          id,
		Round:       0,
		MaxRounds:   DefaultMaxRounds,
		DrawerIndex: -1,
		Phase:       PhaseIdle,
	}
}

func (r *Room) Started() bool {
	return r.Phase != PhaseIdle
}

// Drawer returns the current drawer's connection id. The second return is
// false when no rotation snapshot exists or the game is idle.
func (r *Room) Drawer() (string, bool) {
	if !r.Started() || len(r.Order) == 0 {
		return "", false
	}
	if r.DrawerIndex < 0 || r.DrawerIndex >= len(r.Order) {
		return "", false
	}
	return r.Order[r.DrawerIndex], true
}

func (r *Room) IsDrawer(id string) bool {
	drawer, ok := r.Drawer()
	return ok && drawer == id
}

// ResetToIdle returns the room to the not-started state, dropping all turn
// fields. Used on game end and on forced termination.
func (r *Room) ResetToIdle() {
	r.Phase = PhaseIdle
	r.Round = 0
	r.DrawerIndex = -1
	r.Order = nil
	r.TimeLeft = 0
	r.Turn = nil
}

// Duration is the configured turn length, defaulted when unset.
func (r *Room) Duration() int {
	if r.TurnDuration <= 0 {
		return DefaultTurnDuration
	}
	return r.TurnDuration
}

// MaskedWord renders the active word for non-drawers. Empty when no turn is live.
func (r *Room) MaskedWord() string {
	if r.Turn == nil {
		return ""
	}
	return Mask(r.Turn.Word, r.Turn.Revealed)
}

// Mask maps every character of word to itself when its index is revealed,
// keeps spaces, and hides the rest behind underscores. It is a pure function
// of (word, revealed).
func Mask(word string, revealed []int) string {
	set := make(map[int]struct{}, len(revealed))
	for _, i := range revealed {
		set[i] = struct{}{}
	}

	var sb strings.Builder
	for i, ch := range []rune(word) {
		switch {
		case ch == ' ':
			sb.WriteRune(' ')
		default:
			if _, ok := set[i]; ok {
				sb.WriteRune(ch)
			} else {
				sb.WriteRune('_')
			}
		}
	}
	return sb.String()
}

// RevealCandidates lists letter indices still eligible for early reveal:
// every non-space position not yet revealed.
func RevealCandidates(word string, revealed []int) []int {
	set := make(map[int]struct{}, len(revealed))
	for _, i := range revealed {
		set[i] = struct{}{}
	}

	var candidates []int
	for i, ch := range []rune(word) {
		if ch == ' ' {
			continue
		}
		if _, ok := set[i]; ok {
			continue
		}
		candidates = append(candidates, i)
	}
	return candidates
}
