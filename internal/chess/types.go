package chess

import "fmt"

type GameStatus string

const (
	StatusActive   GameStatus = "active"
	StatusWhiteWon GameStatus = "white_won"
	StatusBlackWon GameStatus = "black_won"
)

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

// Opposite returns the other side.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Title is the capitalized name used in player-facing messages.
func (c Color) Title() string {
	if c == White {
		return "White"
	}
	return "Black"
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case "white", "w":
		*c = White
	case "black", "b":
		*c = Black
	default:
		return fmt.Errorf("unknown color %q", text)
	}
	return nil
}

type PieceType uint8

const (
	King PieceType = iota
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

var pieceTypeNames = [...]string{
	King:   "king",
	Queen:  "queen",
	Rook:   "rook",
	Bishop: "bishop",
	Knight: "knight",
	Pawn:   "pawn",
}

func (t PieceType) String() string {
	if int(t) < len(pieceTypeNames) {
		return pieceTypeNames[t]
	}
	return "unknown"
}

func (t PieceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(text []byte) error {
	for i, name := range pieceTypeNames {
		if name == string(text) {
			*t = PieceType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown piece type %q", text)
}

// MaterialCount represents the material count for both sides
type MaterialCount struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// Balance is White's material minus Black's.
func (m MaterialCount) Balance() int {
	return m.White - m.Black
}

// StandardPieceValues maps piece types to their standard values
var StandardPieceValues = map[PieceType]int{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0, // King has no material value
}

// SelectionState is the interaction state of the move resolver.
type SelectionState string

const (
	SelectionIdle   SelectionState = "idle"
	SelectionSquare SelectionState = "square_selected"
	SelectionPiece  SelectionState = "piece_selected"
)

type Selection struct {
	State  SelectionState `json:"state"`
	Square *Square        `json:"square,omitempty"`
	Piece  *PieceID       `json:"piece,omitempty"`
}

// CastleResult describes the rook swap of a castling move. The rook on the
// corner is removed and a new one spawned next to the king.
type CastleResult struct {
	Side        CastleSide `json:"side"`
	RookRemoved PieceID    `json:"rookRemoved"`
	Rook        Piece      `json:"rook"`
}

type MoveResult struct {
	Piece       Piece         `json:"piece"`
	From        Square        `json:"from"`
	To          Square        `json:"to"`
	Valid       bool          `json:"valid"`
	Castle      *CastleResult `json:"castle,omitempty"`
	Taken       []Piece       `json:"taken,omitempty"`
	TurnChanged bool          `json:"turnChanged"`
	GameOver    bool          `json:"gameOver"`
	Result      string        `json:"result,omitempty"`
}

// Outcome is what a single input (select, deselect, move) produced.
type Outcome struct {
	Selection      Selection   `json:"selection"`
	Move           *MoveResult `json:"move,omitempty"`
	SelectionReset bool        `json:"selectionReset"`
	Turn           Color       `json:"turn"`
	Status         GameStatus  `json:"status"`
	Winner         *Color      `json:"winner,omitempty"`
	Ignored        bool        `json:"ignored,omitempty"` // game already over
}

// Committed reports whether the outcome carries a legal, applied move.
func (o *Outcome) Committed() bool {
	return o != nil && o.Move != nil && o.Move.Valid
}

type State struct {
	Pieces        []Piece       `json:"pieces"`
	Turn          Color         `json:"turn"`
	Selection     Selection     `json:"selection"`
	Reachable     []Square      `json:"reachable"`
	Status        GameStatus    `json:"status"`
	Winner        *Color        `json:"winner,omitempty"`
	MaterialCount MaterialCount `json:"materialCount"`
	Placement     string        `json:"placement"`
}
