package game

import (
	"time"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
)

// Event is the unit of outbound traffic: a type tag plus a JSON-serializable
// payload. The gateway decides locality (room broadcast, room-except, or a
// single client).
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	EventPlayersUpdate = "players:update"
	EventSystemMessage = "system:message"
	EventChatMessage   = "chat:message"
	EventWordOptions   = "word:options"
	EventWordMask      = "word:mask"
	EventTurnStart     = "turn:start"
	EventTimerUpdate   = "timer:update"
	EventTurnEnd       = "turn:end"
	EventGameEnd       = "game:end"
	EventRoomState     = "room:state"
	EventStroke        = "stroke"
	EventStrokeUpdate  = "stroke:update"
	EventUndo          = "undo"
	EventClear         = "clear"
)

type TurnStartPayload struct {
	Drawer    string `json:"drawer"`
	Time      int    `json:"time"`
	Round     int    `json:"round"`
	MaxRounds int    `json:"maxRounds,omitempty"`
}

type WordOptionsPayload struct {
	Options []string `json:"options"`
}

type WordMaskPayload struct {
	Mask string `json:"mask"`
	Time int    `json:"time"`
}

type TurnEndPayload struct {
	Word string `json:"word"`
}

type GameEndPayload struct {
	Players []domain.PlayerInfo `json:"players"`
}

type ChatMessagePayload struct {
	From           string `json:"from"`
	Message        string `json:"message"`
	SenderID       string `json:"senderId"`
	Timestamp      int64  `json:"timestamp"`
	IsCorrectGuess bool   `json:"isCorrectGuess,omitempty"`
}

type UndoPayload struct {
	StrokeID string `json:"strokeId"`
}

type RoomStatePayload struct {
	MaxRounds    int  `json:"maxRounds"`
	CurrentRound int  `json:"currentRound"`
	GameStarted  bool `json:"gameStarted"`
}

func NewPlayersUpdate(players []domain.PlayerInfo) Event {
	return Event{Type: EventPlayersUpdate, Data: players}
}

func NewSystemMessage(text string) Event {
	return Event{Type: EventSystemMessage, Data: text}
}

func NewChatMessage(from, message, senderID string, correct bool) Event {
	return Event{Type: EventChatMessage, Data: ChatMessagePayload{
		From:           from,
		Message:        message,
		SenderID:       senderID,
		Timestamp:      time.Now().UnixMilli(),
		IsCorrectGuess: correct,
	}}
}

func NewWordOptions(options []string) Event {
	return Event{Type: EventWordOptions, Data: WordOptionsPayload{Options: options}}
}

func NewWordMask(mask string, timeLeft int) Event {
	return Event{Type: EventWordMask, Data: WordMaskPayload{Mask: mask, Time: timeLeft}}
}

func NewTurnStart(drawer string, timeLeft, round, maxRounds int) Event {
	return Event{Type: EventTurnStart, Data: TurnStartPayload{
		Drawer:    drawer,
		Time:      timeLeft,
		Round:     round,
		MaxRounds: maxRounds,
	}}
}

func NewTimerUpdate(secondsLeft int) Event {
	return Event{Type: EventTimerUpdate, Data: secondsLeft}
}

func NewTurnEnd(word string) Event {
	return Event{Type: EventTurnEnd, Data: TurnEndPayload{Word: word}}
}

func NewGameEnd(players []domain.PlayerInfo) Event {
	return Event{Type: EventGameEnd, Data: GameEndPayload{Players: players}}
}

func NewRoomState(maxRounds, currentRound int, started bool) Event {
	return Event{Type: EventRoomState, Data: RoomStatePayload{
		MaxRounds:    maxRounds,
		CurrentRound: currentRound,
		GameStarted:  started,
	}}
}

func NewStroke(stroke *domain.Stroke) Event {
	return Event{Type: EventStroke, Data: stroke}
}

func NewStrokeUpdate(stroke *domain.Stroke) Event {
	return Event{Type: EventStrokeUpdate, Data: stroke}
}

func NewUndo(strokeID string) Event {
	return Event{Type: EventUndo, Data: UndoPayload{StrokeID: strokeID}}
}

func NewClear() Event {
	return Event{Type: EventClear}
}
