package chess

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type placed struct {
	t    PieceType
	c    Color
	x, y int
}

func boardWith(t *testing.T, pieces ...placed) *Board {
	t.Helper()
	b := NewBoard()
	for _, p := range pieces {
		_, err := b.Spawn(p.t, p.c, NewSquare(p.x, p.y))
		require.NoError(t, err)
	}
	return b
}

func snapshotWith(t *testing.T, pieces ...placed) []Piece {
	t.Helper()
	return boardWith(t, pieces...).Pieces()
}

func TestNewStandardBoard(t *testing.T) {
	b := NewStandardBoard()
	require.Equal(t, 32, b.Len())

	expectedBackRank := []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for y, want := range expectedBackRank {
		white, ok := b.PieceAt(NewSquare(0, y))
		require.True(t, ok, "white back rank column %d empty", y)
		assert.Equal(t, want, white.Type)
		assert.Equal(t, White, white.Color)

		black, ok := b.PieceAt(NewSquare(7, y))
		require.True(t, ok, "black back rank column %d empty", y)
		assert.Equal(t, want, black.Type)
		assert.Equal(t, Black, black.Color)
	}

	for y := 0; y < BoardSize; y++ {
		p, ok := b.PieceAt(NewSquare(1, y))
		require.True(t, ok)
		assert.Equal(t, Pawn, p.Type)
		assert.Equal(t, White, p.Color)

		p, ok = b.PieceAt(NewSquare(6, y))
		require.True(t, ok)
		assert.Equal(t, Pawn, p.Type)
		assert.Equal(t, Black, p.Color)
	}

	for x := 2; x < 6; x++ {
		for y := 0; y < BoardSize; y++ {
			_, ok := b.PieceAt(NewSquare(x, y))
			assert.False(t, ok, "expected (%d,%d) to be empty", x, y)
		}
	}
}

func TestSpawnRejectsOffBoardSquares(t *testing.T) {
	b := NewBoard()
	for _, sq := range []Square{{-1, 0}, {0, -1}, {8, 0}, {0, 8}} {
		_, err := b.Spawn(Pawn, White, sq)
		assert.True(t, errors.Is(err, ErrOffBoard), "spawn at %s", sq)
	}
	assert.Zero(t, b.Len())
}

func TestSpawnAssignsStableIDs(t *testing.T) {
	b := NewBoard()
	first, err := b.Spawn(Rook, White, NewSquare(0, 0))
	require.NoError(t, err)
	second, err := b.Spawn(Rook, White, NewSquare(0, 7))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	removed, ok := b.Remove(first)
	require.True(t, ok)
	assert.Equal(t, NewSquare(0, 0), removed.Square())

	third, err := b.Spawn(Rook, White, NewSquare(0, 5))
	require.NoError(t, err)
	assert.NotEqual(t, first, third, "ids must not be reused")

	_, ok = b.Piece(first)
	assert.False(t, ok)
	_, ok = b.Remove(first)
	assert.False(t, ok)
}

func TestPiecesReturnsACopy(t *testing.T) {
	b := boardWith(t, placed{Queen, White, 3, 3})
	snapshot := b.Pieces()
	snapshot[0].X = 7

	p, ok := b.PieceAt(NewSquare(3, 3))
	require.True(t, ok)
	assert.Equal(t, Queen, p.Type)
}

func TestSquareColors(t *testing.T) {
	assert.False(t, NewSquare(0, 0).IsLight())
	assert.True(t, NewSquare(0, 1).IsLight())
	assert.True(t, NewSquare(1, 0).IsLight())
	assert.False(t, NewSquare(7, 7).IsLight())

	light := 0
	for _, sq := range AllSquares() {
		if sq.IsLight() {
			light++
		}
	}
	assert.Equal(t, 32, light)
}

func TestTurnAdvance(t *testing.T) {
	for _, start := range []Color{White, Black} {
		turn := NewTurn(start)
		assert.Equal(t, start, turn.Current())

		turn.Advance()
		assert.Equal(t, start.Opposite(), turn.Current())

		turn.Advance()
		assert.Equal(t, start, turn.Current())
	}

	var zero Turn
	assert.Equal(t, White, zero.Current())
}
