package game

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/store"
)

func newTestService(t *testing.T) (*Service, *fakeBroadcaster, domain.Store) {
	t.Helper()
	bc := newFakeBroadcaster()
	st := store.NewMemory()
	svc := NewService(st, bc, Defaults{},
		WithClock(clockwork.NewFakeClock()),
		WithRand(rand.New(rand.NewSource(42))),
	)
	return svc, bc, st
}

// twoPlayerRoom creates a room with Alice (creator, first in join order) and
// Bob. Alice becomes the first drawer after StartGame.
func twoPlayerRoom(t *testing.T, svc *Service) (roomID, alice, bob string) {
	t.Helper()
	ctx := context.Background()
	alice, bob = "conn-a", "conn-b"

	roomID, err := svc.CreateRoom(ctx, alice, "Alice", "")
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, bob, "Bob", roomID))
	return roomID, alice, bob
}

// startDrawing drives the room into a live turn with the given word.
func startDrawing(t *testing.T, svc *Service, roomID, drawer, word string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.StartGame(ctx, roomID, 0, 0))
	svc.SelectWord(ctx, roomID, drawer, word)
	// The countdown goroutine stays parked on the fake clock; stop it so
	// tests can step seconds by hand.
	svc.cancelTimer(roomID)
}

func getRoom(t *testing.T, st domain.Store, roomID string) *domain.Room {
	t.Helper()
	meta, err := st.GetRoom(context.Background(), roomID)
	require.NoError(t, err)
	require.NotNil(t, meta)
	return meta
}

func TestCreateRoomJoinsCreator(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()

	roomID, err := svc.CreateRoom(ctx, "conn-a", "Alice", "")
	require.NoError(t, err)
	require.Len(t, roomID, 6)

	meta := getRoom(t, st, roomID)
	assert.Equal(t, domain.PhaseIdle, meta.Phase)
	assert.Equal(t, domain.DefaultMaxRounds, meta.MaxRounds)

	players, err := st.GetAllPlayers(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Alice", players[0].Name)

	assert.Equal(t, []string{"conn-a"}, bc.joins[roomID])
	_, ok := bc.lastOfType(EventPlayersUpdate)
	assert.True(t, ok)
}

func TestCreateRoomExistingIDJoinsInstead(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateRoom(ctx, "conn-a", "Alice", "lobby1")
	require.NoError(t, err)
	require.Equal(t, "lobby1", first)

	second, err := svc.CreateRoom(ctx, "conn-b", "Bob", "lobby1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	players, err := st.GetAllPlayers(ctx, "lobby1")
	require.NoError(t, err)
	assert.Len(t, players, 2)
}

func TestJoinUnknownRoom(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.JoinRoom(context.Background(), "conn-a", "Alice", "nope")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinEmptyNameDefaults(t *testing.T) {
	svc, bc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "conn-a", "   ", "")
	require.NoError(t, err)

	last, ok := bc.lastOfType(EventSystemMessage)
	require.True(t, ok)
	assert.Equal(t, "Player joined the room.", last.Event.Data)
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()

	roomID, err := svc.CreateRoom(ctx, "conn-a", "Alice", "")
	require.NoError(t, err)
	bc.reset()

	err = svc.StartGame(ctx, roomID, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientPlayers)

	meta := getRoom(t, st, roomID)
	assert.Equal(t, domain.PhaseIdle, meta.Phase)
	assert.Equal(t, 0, meta.Round)
	_, ok := bc.lastOfType(EventTurnStart)
	assert.False(t, ok, "no turn should start")
}

func TestStartGameRotatesFirstDrawer(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	bc.reset()

	require.NoError(t, svc.StartGame(ctx, roomID, 2, 80))

	meta := getRoom(t, st, roomID)
	assert.Equal(t, domain.PhaseChoosing, meta.Phase)
	assert.Equal(t, 1, meta.Round)
	assert.Equal(t, 2, meta.MaxRounds)
	assert.Equal(t, 80, meta.TimeLeft)
	drawer, ok := meta.Drawer()
	require.True(t, ok)
	assert.Equal(t, alice, drawer)

	start, ok := bc.lastOfType(EventTurnStart)
	require.True(t, ok)
	payload := start.Event.Data.(TurnStartPayload)
	assert.Equal(t, alice, payload.Drawer)
	assert.Equal(t, 80, payload.Time)
	assert.Equal(t, 1, payload.Round)

	options, ok := bc.lastOfType(EventWordOptions)
	require.True(t, ok)
	assert.Equal(t, "client", options.Scope)
	assert.Equal(t, alice, options.Target)
	opts := options.Event.Data.(WordOptionsPayload).Options
	require.Len(t, opts, 3)
	assert.NotEqual(t, opts[0], opts[1])
	assert.NotEqual(t, opts[1], opts[2])
	assert.NotEqual(t, opts[0], opts[2])
}

func TestStartGameResetsScores(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)

	player, err := st.GetPlayer(ctx, roomID, alice)
	require.NoError(t, err)
	player.Score = 250
	require.NoError(t, st.SetPlayer(ctx, roomID, player))

	require.NoError(t, svc.StartGame(ctx, roomID, 0, 0))

	player, err = st.GetPlayer(ctx, roomID, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, player.Score)
}

func TestSelectWordIgnoresNonDrawer(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, _, bob := twoPlayerRoom(t, svc)

	require.NoError(t, svc.StartGame(ctx, roomID, 0, 0))
	bc.reset()

	svc.SelectWord(ctx, roomID, bob, "zebra")

	meta := getRoom(t, st, roomID)
	assert.Nil(t, meta.Turn)
	assert.Equal(t, domain.PhaseChoosing, meta.Phase)
	_, ok := bc.lastOfType(EventWordMask)
	assert.False(t, ok)
}

func TestSelectWordBroadcastsMask(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)

	require.NoError(t, svc.StartGame(ctx, roomID, 0, 0))
	bc.reset()
	svc.SelectWord(ctx, roomID, alice, "go kart")

	meta := getRoom(t, st, roomID)
	require.NotNil(t, meta.Turn)
	assert.Equal(t, "go kart", meta.Turn.Word)
	assert.Equal(t, domain.PhaseDrawing, meta.Phase)

	mask, ok := bc.lastOfType(EventWordMask)
	require.True(t, ok)
	payload := mask.Event.Data.(WordMaskPayload)
	assert.Equal(t, "__ ____", payload.Mask)
	assert.Equal(t, 60, payload.Time)
}

func TestCountdownRevealsAndEndsTurn(t *testing.T) {
	svc, bc, st := newTestService(t)
	roomID, alice, _ := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "elephant")
	bc.reset()

	tickTo := func(target int) {
		for getRoom(t, st, roomID).TimeLeft > target {
			if svc.tick(roomID) {
				return
			}
		}
	}

	tickTo(41)
	_, ok := bc.lastOfType(EventWordMask)
	assert.False(t, ok, "no reveal before the first checkpoint")

	tickTo(40)
	mask, ok := bc.lastOfType(EventWordMask)
	require.True(t, ok)
	assert.Equal(t, 7, strings.Count(mask.Event.Data.(WordMaskPayload).Mask, "_"))

	tickTo(20)
	mask, ok = bc.lastOfType(EventWordMask)
	require.True(t, ok)
	assert.Equal(t, 6, strings.Count(mask.Event.Data.(WordMaskPayload).Mask, "_"))

	tickTo(0)
	end, ok := bc.lastOfType(EventTurnEnd)
	require.True(t, ok)
	assert.Equal(t, "elephant", end.Event.Data.(TurnEndPayload).Word)

	meta := getRoom(t, st, roomID)
	assert.Nil(t, meta.Turn)
	assert.Equal(t, domain.PhaseIntermission, meta.Phase)

	updates := bc.ofType(EventTimerUpdate)
	assert.Len(t, updates, 60)
}

func TestEndTurnIsIdempotent(t *testing.T) {
	svc, bc, _ := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "lighthouse")

	svc.EndTurn(ctx, roomID)
	bc.reset()
	svc.EndTurn(ctx, roomID)

	_, ok := bc.lastOfType(EventTurnEnd)
	assert.False(t, ok, "second end must not re-announce")
}

func TestIntermissionRotatesAfterDelay(t *testing.T) {
	bc := newFakeBroadcaster()
	st := store.NewMemory()
	clock := clockwork.NewFakeClock()
	svc := NewService(st, bc, Defaults{},
		WithClock(clock),
		WithRand(rand.New(rand.NewSource(42))),
	)
	ctx := context.Background()

	roomID, alice, bob := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "comet")

	svc.EndTurn(ctx, roomID)

	// Advance inside the poll: the delay timer registers with the fake
	// clock from a goroutine, so a single advance could land too early.
	require.Eventually(t, func() bool {
		clock.Advance(turnEndDelay)
		meta, err := st.GetRoom(ctx, roomID)
		if err != nil || meta == nil {
			return false
		}
		drawer, ok := meta.Drawer()
		return ok && drawer == bob && meta.Phase == domain.PhaseChoosing
	}, time.Second, 5*time.Millisecond)
}

func TestSelectWordDuringIntermissionIsIgnored(t *testing.T) {
	bc := newFakeBroadcaster()
	st := store.NewMemory()
	clock := clockwork.NewFakeClock()
	svc := NewService(st, bc, Defaults{},
		WithClock(clock),
		WithRand(rand.New(rand.NewSource(42))),
	)
	ctx := context.Background()

	roomID, alice, bob := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "comet")

	svc.EndTurn(ctx, roomID)

	// Alice still occupies the drawer slot during the intermission; a
	// late selection must neither restart her turn nor displace the
	// pending rotation.
	svc.SelectWord(ctx, roomID, alice, "meteor")

	meta := getRoom(t, st, roomID)
	assert.Nil(t, meta.Turn)
	assert.Equal(t, domain.PhaseIntermission, meta.Phase)

	require.Eventually(t, func() bool {
		clock.Advance(turnEndDelay)
		meta, err := st.GetRoom(ctx, roomID)
		if err != nil || meta == nil {
			return false
		}
		drawer, ok := meta.Drawer()
		return ok && drawer == bob && meta.Phase == domain.PhaseChoosing
	}, time.Second, 5*time.Millisecond)
}

func TestRotationWrapsRoundsAndEndsGame(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, bob := twoPlayerRoom(t, svc)

	require.NoError(t, svc.StartGame(ctx, roomID, 1, 0))

	endTurn := func(drawer, word string) {
		svc.SelectWord(ctx, roomID, drawer, word)
		svc.cancelTimer(roomID)
		svc.EndTurn(ctx, roomID)
		svc.cancelTimer(roomID)
		svc.StartNextTurn(ctx, roomID)
	}

	// Round 1, turn 1: Alice draws; rotation hands Bob the pen.
	endTurn(alice, "apple")
	meta := getRoom(t, st, roomID)
	drawer, ok := meta.Drawer()
	require.True(t, ok)
	assert.Equal(t, bob, drawer)
	assert.Equal(t, 1, meta.Round)

	// Round 1, turn 2: Bob draws; the wrap overflows the single round.
	bc.reset()
	endTurn(bob, "pear")

	_, ok = bc.lastOfType(EventGameEnd)
	assert.True(t, ok)
	meta = getRoom(t, st, roomID)
	assert.Equal(t, domain.PhaseIdle, meta.Phase)
	assert.Equal(t, 0, meta.Round)
	assert.Equal(t, -1, meta.DrawerIndex)
	assert.Nil(t, meta.Order)
}

func TestMidGameJoinerEntersRotation(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, bob := twoPlayerRoom(t, svc)

	require.NoError(t, svc.StartGame(ctx, roomID, 3, 0))
	svc.SelectWord(ctx, roomID, alice, "apple")
	svc.cancelTimer(roomID)

	require.NoError(t, svc.JoinRoom(ctx, "conn-c", "Cara", roomID))

	svc.EndTurn(ctx, roomID)
	svc.cancelTimer(roomID)
	svc.StartNextTurn(ctx, roomID)

	meta := getRoom(t, st, roomID)
	assert.Equal(t, []string{alice, bob, "conn-c"}, meta.Order)
	drawer, ok := meta.Drawer()
	require.True(t, ok)
	assert.Equal(t, bob, drawer)
	assert.Equal(t, 1, meta.Round)
}

func TestGuessPoints(t *testing.T) {
	tests := []struct {
		timeLeft int
		want     int
	}{
		{60, 100},
		{45, 75},
		{31, 51},
		{30, 50},
		{10, 50},
		{0, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, guessPoints(tt.timeLeft), "timeLeft=%d", tt.timeLeft)
	}
}

func TestCorrectGuessAwardsAndEndsTurn(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, bob := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "banana")
	bc.reset()

	require.NoError(t, svc.HandleChat(ctx, roomID, bob, "  BANANA "))

	guesser, err := st.GetPlayer(ctx, roomID, bob)
	require.NoError(t, err)
	assert.Equal(t, 100, guesser.Score)

	drawer, err := st.GetPlayer(ctx, roomID, alice)
	require.NoError(t, err)
	assert.Equal(t, 50, drawer.Score)

	ack, ok := bc.lastOfType(EventChatMessage)
	require.True(t, ok)
	assert.Equal(t, "client", ack.Scope)
	assert.Equal(t, bob, ack.Target)
	assert.True(t, ack.Event.Data.(ChatMessagePayload).IsCorrectGuess)

	notices := bc.ofType(EventSystemMessage)
	require.NotEmpty(t, notices)
	assert.Equal(t, "Bob guessed the word!", notices[0].Event.Data)
	assert.Equal(t, `Everyone guessed the word! It was "banana"`, notices[len(notices)-1].Event.Data)

	// Bob was the only guesser, so the turn ends immediately.
	_, ok = bc.lastOfType(EventTurnEnd)
	assert.True(t, ok)
	assert.Nil(t, getRoom(t, st, roomID).Turn)
}

func TestMidTurnGuessHalvesDrawerAward(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, bob := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "banana")

	for getRoom(t, st, roomID).TimeLeft > 45 {
		svc.tick(roomID)
	}

	require.NoError(t, svc.HandleChat(ctx, roomID, bob, "banana"))

	guesser, err := st.GetPlayer(ctx, roomID, bob)
	require.NoError(t, err)
	assert.Equal(t, 75, guesser.Score)

	// Integer half of 75.
	drawer, err := st.GetPlayer(ctx, roomID, alice)
	require.NoError(t, err)
	assert.Equal(t, 37, drawer.Score)
}

func TestDuplicateGuessScoresOnce(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, bob := twoPlayerRoom(t, svc)
	require.NoError(t, svc.JoinRoom(ctx, "conn-c", "Cara", roomID))
	startDrawing(t, svc, roomID, alice, "banana")

	require.NoError(t, svc.HandleChat(ctx, roomID, bob, "banana"))
	bc.reset()
	require.NoError(t, svc.HandleChat(ctx, roomID, bob, "banana"))

	guesser, err := st.GetPlayer(ctx, roomID, bob)
	require.NoError(t, err)
	assert.Equal(t, 100, guesser.Score)

	ack, ok := bc.lastOfType(EventChatMessage)
	require.True(t, ok)
	assert.Equal(t, "client", ack.Scope, "repeat guess stays private")

	_, ok = bc.lastOfType(EventSystemMessage)
	assert.False(t, ok)
	require.NotNil(t, getRoom(t, st, roomID).Turn, "Cara has not guessed yet")
}

func TestDrawerCannotChatMidTurn(t *testing.T) {
	svc, bc, _ := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "banana")
	bc.reset()

	err := svc.HandleChat(ctx, roomID, alice, "it's a fruit")
	assert.ErrorIs(t, err, domain.ErrDrawerCannotChat)
	assert.Empty(t, bc.sent)
}

func TestWrongGuessRelayedAsChat(t *testing.T) {
	svc, bc, _ := newTestService(t)
	ctx := context.Background()
	roomID, alice, bob := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "banana")
	bc.reset()

	require.NoError(t, svc.HandleChat(ctx, roomID, bob, "mango"))

	msg, ok := bc.lastOfType(EventChatMessage)
	require.True(t, ok)
	assert.Equal(t, "room", msg.Scope)
	payload := msg.Event.Data.(ChatMessagePayload)
	assert.Equal(t, "Bob", payload.From)
	assert.Equal(t, "mango", payload.Message)
	assert.False(t, payload.IsCorrectGuess)
}

func TestChatOutsideTurnIsPlainRelay(t *testing.T) {
	svc, bc, _ := newTestService(t)
	ctx := context.Background()
	roomID, alice, _ := twoPlayerRoom(t, svc)
	bc.reset()

	require.NoError(t, svc.HandleChat(ctx, roomID, alice, "hello"))

	msg, ok := bc.lastOfType(EventChatMessage)
	require.True(t, ok)
	assert.Equal(t, "room", msg.Scope)
}

func TestChatFromStrangerRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	roomID, _, _ := twoPlayerRoom(t, svc)

	err := svc.HandleChat(ctx, roomID, "conn-z", "hi")
	assert.ErrorIs(t, err, domain.ErrNotInRoom)
}

func TestLeaveLastPlayerTearsDownRoom(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	roomID, err := svc.CreateRoom(ctx, "conn-a", "Alice", "")
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, roomID, "conn-a"))

	meta, err := st.GetRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestLeaveMidGameForcesGameEnd(t *testing.T) {
	svc, bc, st := newTestService(t)
	ctx := context.Background()
	roomID, alice, bob := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "banana")
	bc.reset()

	require.NoError(t, svc.Leave(ctx, roomID, bob))

	_, ok := bc.lastOfType(EventGameEnd)
	assert.True(t, ok)

	meta := getRoom(t, st, roomID)
	assert.Equal(t, domain.PhaseIdle, meta.Phase)
	assert.Nil(t, meta.Turn)

	notices := bc.ofType(EventSystemMessage)
	found := false
	for _, n := range notices {
		if n.Event.Data == "Game ended because only one player is left." {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStateSnapshotHidesWordFromGuessers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	roomID, alice, bob := twoPlayerRoom(t, svc)
	startDrawing(t, svc, roomID, alice, "banana")

	forDrawer, err := svc.State(ctx, roomID, alice)
	require.NoError(t, err)
	assert.True(t, forDrawer.IsDrawer)
	assert.Equal(t, "banana", forDrawer.WordPlain)
	assert.Equal(t, "Alice", forDrawer.DrawerName)

	forGuesser, err := svc.State(ctx, roomID, bob)
	require.NoError(t, err)
	assert.False(t, forGuesser.IsDrawer)
	assert.Empty(t, forGuesser.WordPlain)
	assert.Equal(t, "______", forGuesser.WordMask)
}
