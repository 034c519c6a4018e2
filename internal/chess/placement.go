package chess

import (
	"fmt"

	nchess "github.com/notnil/chess"
)

// Placement returns the piece-placement field of a FEN record for the
// board, rank 8 first.
func (b *Board) Placement() string {
	return b.exportBoard().String()
}

// Diagram returns a text drawing of the board with ranks and files.
func (b *Board) Diagram() string {
	return b.exportBoard().Draw()
}

func (b *Board) exportBoard() *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece, len(b.pieces))
	for _, p := range NewOccupancy(b.Pieces()) {
		m[exportSquare(p.Square())] = exportPiece(p)
	}
	return nchess.NewBoard(m)
}

// exportSquare maps a row/column square onto rank/file indexing; row 0 is
// rank 1 and column 0 is file a.
func exportSquare(sq Square) nchess.Square {
	return nchess.Square(sq.X*BoardSize + sq.Y)
}

func exportPiece(p Piece) nchess.Piece {
	if p.Color == White {
		switch p.Type {
		case King:
			return nchess.WhiteKing
		case Queen:
			return nchess.WhiteQueen
		case Rook:
			return nchess.WhiteRook
		case Bishop:
			return nchess.WhiteBishop
		case Knight:
			return nchess.WhiteKnight
		case Pawn:
			return nchess.WhitePawn
		}
		return nchess.NoPiece
	}
	switch p.Type {
	case King:
		return nchess.BlackKing
	case Queen:
		return nchess.BlackQueen
	case Rook:
		return nchess.BlackRook
	case Bishop:
		return nchess.BlackBishop
	case Knight:
		return nchess.BlackKnight
	case Pawn:
		return nchess.BlackPawn
	}
	return nchess.NoPiece
}

// ParsePlacement builds a board from the piece-placement field of a FEN
// record. Positions without kings are accepted. Pieces are spawned rank 8
// first, file a to h.
func ParsePlacement(placement string) (*Board, error) {
	var nb nchess.Board
	if err := nb.UnmarshalText([]byte(placement)); err != nil {
		return nil, fmt.Errorf("invalid placement %q: %w", placement, err)
	}

	pieces := nb.SquareMap()
	b := NewBoard()
	for x := BoardSize - 1; x >= 0; x-- {
		for y := 0; y < BoardSize; y++ {
			sq := NewSquare(x, y)
			np, ok := pieces[exportSquare(sq)]
			if !ok || np == nchess.NoPiece {
				continue
			}
			t, c, ok := importPiece(np)
			if !ok {
				return nil, fmt.Errorf("invalid placement %q: unknown piece %s", placement, np)
			}
			if _, err := b.Spawn(t, c, sq); err != nil {
				return nil, fmt.Errorf("invalid placement %q: %w", placement, err)
			}
		}
	}
	return b, nil
}

func importPiece(p nchess.Piece) (PieceType, Color, bool) {
	c := White
	if p.Color() == nchess.Black {
		c = Black
	}
	switch p.Type() {
	case nchess.King:
		return King, c, true
	case nchess.Queen:
		return Queen, c, true
	case nchess.Rook:
		return Rook, c, true
	case nchess.Bishop:
		return Bishop, c, true
	case nchess.Knight:
		return Knight, c, true
	case nchess.Pawn:
		return Pawn, c, true
	}
	return 0, White, false
}
