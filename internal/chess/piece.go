package chess

// PieceID identifies a piece in a Board for its whole lifetime.
type PieceID uint32

// Piece is a chess unit. Type and Color never change after the piece is
// spawned; X and Y follow it around the board.
type Piece struct {
	ID    PieceID   `json:"id"`
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
	X     int       `json:"x"`
	Y     int       `json:"y"`
}

func (p Piece) Square() Square {
	return Square{X: p.X, Y: p.Y}
}

// Occupancy maps squares to the piece standing on them. It is rebuilt from
// a snapshot whenever a move is evaluated.
type Occupancy map[Square]Piece

// NewOccupancy indexes pieces by square. When two pieces share a square the
// first one in the slice wins.
func NewOccupancy(pieces []Piece) Occupancy {
	occ := make(Occupancy, len(pieces))
	for _, p := range pieces {
		sq := p.Square()
		if _, taken := occ[sq]; taken {
			continue
		}
		occ[sq] = p
	}
	return occ
}

func (o Occupancy) At(sq Square) (Piece, bool) {
	p, ok := o[sq]
	return p, ok
}

func (o Occupancy) Empty(sq Square) bool {
	_, ok := o[sq]
	return !ok
}

// Castling geometry. Columns are shared by both colors; the row is the
// color's home row.
const (
	kingHomeColumn          = 4
	kingsideKingColumn      = 6
	kingsideRookColumn      = 7
	kingsideRookDestColumn  = 5
	queensideKingColumn     = 2
	queensideRookColumn     = 0
	queensideRookDestColumn = 3
)

func homeRow(c Color) int {
	if c == White {
		return 0
	}
	return BoardSize - 1
}

func pawnDirection(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 1
	}
	return BoardSize - 2
}

// IsMoveValid reports whether the piece may move to target given every
// piece on the board. The check only covers movement geometry, blocking and
// friendly occupation; it never errors.
//
// Castling is recognized for a king on its home square heading for one of
// the two canonical squares without looking at rooks, intervening pieces or
// check.
func (p Piece) IsMoveValid(target Square, pieces []Piece) bool {
	from := p.Square()
	if !from.Valid() || !target.Valid() || from == target {
		return false
	}

	occ := NewOccupancy(pieces)
	if other, ok := occ.At(target); ok && other.Color == p.Color {
		return false
	}

	dx := target.X - from.X
	dy := target.Y - from.Y

	switch p.Type {
	case King:
		if abs(dx) <= 1 && abs(dy) <= 1 {
			return true
		}
		_, castling := castlingSide(p, target)
		return castling
	case Queen:
		if dx != 0 && dy != 0 && abs(dx) != abs(dy) {
			return false
		}
		return pathClear(occ, from, target)
	case Rook:
		if dx != 0 && dy != 0 {
			return false
		}
		return pathClear(occ, from, target)
	case Bishop:
		if abs(dx) != abs(dy) {
			return false
		}
		return pathClear(occ, from, target)
	case Knight:
		return (abs(dx) == 1 && abs(dy) == 2) || (abs(dx) == 2 && abs(dy) == 1)
	case Pawn:
		return pawnMoveValid(p, occ, dx, dy, target)
	}
	return false
}

func pawnMoveValid(p Piece, occ Occupancy, dx, dy int, target Square) bool {
	dir := pawnDirection(p.Color)

	switch {
	case dy == 0 && dx == dir:
		return occ.Empty(target)
	case dy == 0 && dx == 2*dir:
		if p.X != pawnStartRow(p.Color) {
			return false
		}
		return occ.Empty(p.Square().Add(dir, 0)) && occ.Empty(target)
	case abs(dy) == 1 && dx == dir:
		other, ok := occ.At(target)
		return ok && other.Color != p.Color
	}
	return false
}

// pathClear reports whether every square strictly between from and to is
// empty. from and to must share a row, column or diagonal.
func pathClear(occ Occupancy, from, to Square) bool {
	stepX := sign(to.X - from.X)
	stepY := sign(to.Y - from.Y)
	for sq := from.Add(stepX, stepY); sq != to; sq = sq.Add(stepX, stepY) {
		if !occ.Empty(sq) {
			return false
		}
	}
	return true
}

// CastleSide names the rook corner a castling king moves toward.
type CastleSide string

const (
	Kingside  CastleSide = "kingside"
	Queenside CastleSide = "queenside"
)

// castlingSide reports whether moving p to target is one of the two
// canonical castling moves.
func castlingSide(p Piece, target Square) (CastleSide, bool) {
	row := homeRow(p.Color)
	if p.Type != King || p.X != row || p.Y != kingHomeColumn || target.X != row {
		return "", false
	}
	switch target.Y {
	case kingsideKingColumn:
		return Kingside, true
	case queensideKingColumn:
		return Queenside, true
	}
	return "", false
}

// rookCorner returns the rook square and the rook's square after castling.
func rookCorner(c Color, side CastleSide) (corner, dest Square) {
	row := homeRow(c)
	if side == Kingside {
		return Square{X: row, Y: kingsideRookColumn}, Square{X: row, Y: kingsideRookDestColumn}
	}
	return Square{X: row, Y: queensideRookColumn}, Square{X: row, Y: queensideRookDestColumn}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
