package chess

import "fmt"

// BoardSize is the number of rows and columns on the board.
const BoardSize = 8

// Square is a board cell. X is the row (White's back rank is row 0) and Y
// is the column.
type Square struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func NewSquare(x, y int) Square {
	return Square{X: x, Y: y}
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.X >= 0 && s.X < BoardSize && s.Y >= 0 && s.Y < BoardSize
}

// IsLight reports the square color of the alternating pattern.
func (s Square) IsLight() bool {
	return (s.X+s.Y+1)%2 == 0
}

func (s Square) Add(dx, dy int) Square {
	return Square{X: s.X + dx, Y: s.Y + dy}
}

func (s Square) String() string {
	return fmt.Sprintf("(%d,%d)", s.X, s.Y)
}

// AllSquares returns every square, row by row.
func AllSquares() []Square {
	squares := make([]Square, 0, BoardSize*BoardSize)
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			squares = append(squares, Square{X: x, Y: y})
		}
	}
	return squares
}
