package chess

import (
	"errors"
	"fmt"
	"sort"
)

var ErrOffBoard = errors.New("square is off the board")

// Board is the arena of live pieces, keyed by PieceID. Square lookups are
// derived from a snapshot on demand rather than stored.
type Board struct {
	pieces map[PieceID]*Piece
	nextID PieceID
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{
		pieces: make(map[PieceID]*Piece),
		nextID: 1,
	}
}

var backRank = [BoardSize]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewStandardBoard returns the standard starting position: White on rows 0
// and 1, Black mirrored on rows 7 and 6.
func NewStandardBoard() *Board {
	b := NewBoard()
	for _, c := range []Color{White, Black} {
		home := homeRow(c)
		pawns := pawnStartRow(c)
		for y, t := range backRank {
			b.mustSpawn(t, c, Square{X: home, Y: y})
		}
		for y := 0; y < BoardSize; y++ {
			b.mustSpawn(Pawn, c, Square{X: pawns, Y: y})
		}
	}
	return b
}

// Spawn places a new piece and returns its id. Overlapping an existing piece
// is not rejected.
func (b *Board) Spawn(t PieceType, c Color, sq Square) (PieceID, error) {
	if !sq.Valid() {
		return 0, fmt.Errorf("spawn %s %s at %s: %w", c, t, sq, ErrOffBoard)
	}
	id := b.nextID
	b.nextID++
	b.pieces[id] = &Piece{ID: id, Type: t, Color: c, X: sq.X, Y: sq.Y}
	return id, nil
}

func (b *Board) mustSpawn(t PieceType, c Color, sq Square) PieceID {
	id, err := b.Spawn(t, c, sq)
	if err != nil {
		panic(err)
	}
	return id
}

// Remove deletes a piece from the arena and returns its last state.
func (b *Board) Remove(id PieceID) (Piece, bool) {
	p, ok := b.pieces[id]
	if !ok {
		return Piece{}, false
	}
	delete(b.pieces, id)
	return *p, true
}

func (b *Board) Piece(id PieceID) (Piece, bool) {
	p, ok := b.pieces[id]
	if !ok {
		return Piece{}, false
	}
	return *p, true
}

// PieceAt returns the piece on sq. If several share the square the oldest
// wins.
func (b *Board) PieceAt(sq Square) (Piece, bool) {
	return NewOccupancy(b.Pieces()).At(sq)
}

// Pieces returns a snapshot of every live piece ordered by id.
func (b *Board) Pieces() []Piece {
	out := make([]Piece, 0, len(b.pieces))
	for _, p := range b.pieces {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Board) Len() int {
	return len(b.pieces)
}

// place moves a piece to sq. The caller has validated the move.
func (b *Board) place(id PieceID, sq Square) {
	if p, ok := b.pieces[id]; ok {
		p.X, p.Y = sq.X, sq.Y
	}
}

// MaterialCount sums StandardPieceValues for each side.
func (b *Board) MaterialCount() MaterialCount {
	var m MaterialCount
	for _, p := range b.pieces {
		v := StandardPieceValues[p.Type]
		if p.Color == White {
			m.White += v
		} else {
			m.Black += v
		}
	}
	return m
}
