package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vatanesh/sbg-skribbl/internal/game"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/events"
)

// testClient never touches the wire: hub delivery only writes to the
// buffered channel.
func testClient(id string) *Client {
	return NewClient(nil, id)
}

func drain(cl *Client) []game.Event {
	var out []game.Event
	for {
		select {
		case e := <-cl.Message:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestHubRoomDelivery(t *testing.T) {
	hub := NewHub()
	a, b, c := testClient("a"), testClient("b"), testClient("c")
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)
	hub.Join("r1", "a")
	hub.Join("r1", "b")
	hub.Join("r2", "c")

	hub.ToRoom("r1", game.Event{Type: "ping"})

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(c), "other rooms stay quiet")
}

func TestHubRoomExceptSkipsSender(t *testing.T) {
	hub := NewHub()
	a, b := testClient("a"), testClient("b")
	hub.Register(a)
	hub.Register(b)
	hub.Join("r1", "a")
	hub.Join("r1", "b")

	hub.ToRoomExcept("r1", "a", game.Event{Type: "stroke"})

	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	hub := NewHub()
	a := testClient("a")
	hub.Register(a)
	hub.Join("r1", "a")
	require.Equal(t, "r1", a.RoomID())

	hub.Leave("r1", "a")
	assert.Empty(t, a.RoomID())

	hub.ToRoom("r1", game.Event{Type: "ping"})
	assert.Empty(t, drain(a))
}

func TestHubToClient(t *testing.T) {
	hub := NewHub()
	a := testClient("a")
	hub.Register(a)

	hub.ToClient("a", game.Event{Type: "ack"})
	got := drain(a)
	require.Len(t, got, 1)
	assert.Equal(t, "ack", got[0].Type)
}

// Targeted sends race disconnects in production: the intermission rotation
// goroutine can address a client whose socket is tearing down. Delivery must
// never hit the channel Unregister just closed.
func TestHubToClientDuringUnregister(t *testing.T) {
	hub := NewHub()

	for i := 0; i < 200; i++ {
		cl := testClient("drawer")
		hub.Register(cl)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.ToClient("drawer", game.Event{Type: "word:options"})
		}()
		go func() {
			defer wg.Done()
			hub.Unregister(cl)
		}()
		wg.Wait()
	}
}

type recordingBridge struct {
	published []events.Envelope
}

func (r *recordingBridge) Publish(env events.Envelope) {
	r.published = append(r.published, env)
}

func TestHubMirrorsRoomTrafficOverBridge(t *testing.T) {
	hub := NewHub()
	bridge := &recordingBridge{}
	hub.SetBridge(bridge)

	a := testClient("a")
	hub.Register(a)
	hub.Join("r1", "a")

	hub.ToRoom("r1", game.Event{Type: "ping"})
	hub.ToRoomExcept("r1", "a", game.Event{Type: "stroke"})

	require.Len(t, bridge.published, 2)
	assert.Equal(t, "r1", bridge.published[0].RoomID)
	assert.Equal(t, "a", bridge.published[1].ExceptID)
}

func TestHubRelaysOnlyRemoteClientEvents(t *testing.T) {
	hub := NewHub()
	bridge := &recordingBridge{}
	hub.SetBridge(bridge)

	a := testClient("a")
	hub.Register(a)

	hub.ToClient("a", game.Event{Type: "ack"})
	assert.Empty(t, bridge.published, "locally delivered, no relay needed")

	hub.ToClient("elsewhere", game.Event{Type: "word:options"})
	require.Len(t, bridge.published, 1)
	assert.Equal(t, "elsewhere", bridge.published[0].TargetID)
}

func TestHubBridgedDeliveryIsNotRepublished(t *testing.T) {
	hub := NewHub()
	bridge := &recordingBridge{}
	hub.SetBridge(bridge)

	a := testClient("a")
	hub.Register(a)
	hub.Join("r1", "a")

	hub.DeliverRoom("r1", "", game.Event{Type: "ping"})
	hub.DeliverClient("a", game.Event{Type: "ack"})

	assert.Len(t, drain(a), 2)
	assert.Empty(t, bridge.published)
}
