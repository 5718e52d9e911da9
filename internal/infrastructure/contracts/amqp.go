package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	RoomID string `json:"roomId"`
	Data   []byte `json:"data"`
}

// Routing keys - using consistent event/command patterns
const (
	EventRoomCreated  = "game.room_created"
	EventRoomDeleted  = "game.room_deleted"
	EventPlayerJoined = "game.player_joined"
	EventPlayerLeft   = "game.player_left"
	EventGameStarted  = "game.game_started"
	EventGameEnded    = "game.game_ended"
)
