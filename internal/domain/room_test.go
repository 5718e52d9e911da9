package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		word     string
		revealed []int
		want     string
	}{
		{"all hidden", "apple", nil, "_____"},
		{"spaces kept", "go kart", nil, "__ ____"},
		{"revealed letters shown", "apple", []int{0, 3}, "a__l_"},
		{"revealed index on space is harmless", "go kart", []int{2}, "__ ____"},
		{"empty word", "", nil, ""},
		{"multibyte runes", "café", []int{3}, "___é"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.word, tt.revealed))
		})
	}
}

func TestRevealCandidates(t *testing.T) {
	// Spaces and already-revealed indexes never qualify.
	got := RevealCandidates("go kart", []int{0, 3})
	assert.Equal(t, []int{1, 4, 5, 6}, got)

	assert.Empty(t, RevealCandidates("ab", []int{0, 1}))
	assert.Empty(t, RevealCandidates(" ", nil))
}

func TestMaskNeverLeaksUnrevealedLetters(t *testing.T) {
	word := "suspension bridge"
	mask := Mask(word, []int{0, 5})
	for i, r := range []rune(mask) {
		switch i {
		case 0, 5, 10: // revealed indexes plus the literal space
			continue
		default:
			assert.Equal(t, '_', r, "index %d", i)
		}
	}
}

func TestDrawerBounds(t *testing.T) {
	room := NewRoom("abc123")
	_, ok := room.Drawer()
	assert.False(t, ok, "idle room has no drawer")

	room.Phase = PhaseChoosing
	room.Order = []string{"a", "b"}
	room.DrawerIndex = 1
	drawer, ok := room.Drawer()
	require.True(t, ok)
	assert.Equal(t, "b", drawer)
	assert.True(t, room.IsDrawer("b"))
	assert.False(t, room.IsDrawer("a"))

	// A stale index past the roster is treated as no drawer rather than
	// panicking.
	room.DrawerIndex = 5
	_, ok = room.Drawer()
	assert.False(t, ok)
}

func TestResetToIdle(t *testing.T) {
	room := NewRoom("abc123")
	room.Phase = PhaseDrawing
	room.Round = 2
	room.DrawerIndex = 1
	room.Order = []string{"a", "b"}
	room.TimeLeft = 30
	room.Turn = &Turn{Word: "apple"}

	room.ResetToIdle()

	assert.Equal(t, PhaseIdle, room.Phase)
	assert.False(t, room.Started())
	assert.Equal(t, 0, room.Round)
	assert.Equal(t, -1, room.DrawerIndex)
	assert.Nil(t, room.Order)
	assert.Zero(t, room.TimeLeft)
	assert.Nil(t, room.Turn)
}

func TestNewPlayerSanitizesName(t *testing.T) {
	assert.Equal(t, "Player", NewPlayer("c1", "").Name)
	assert.Equal(t, "Player", NewPlayer("c1", "   ").Name)
	assert.Equal(t, "Alice", NewPlayer("c1", "Alice").Name)

	long := NewPlayer("c1", "abcdefghijklmnopqrstuvwxyz")
	assert.Len(t, []rune(long.Name), MaxNameLength)
}
