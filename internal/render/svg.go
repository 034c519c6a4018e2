package render

import (
	"fmt"
	"strings"

	"github.com/lvichess/lvichess/internal/chess"
)

const (
	lightSquareFill = "#ffe6e6"
	darkSquareFill  = "#001a1a"
	selectedFill    = "#e61a1a"
	reachableFill   = "#cc4d4d"
	whitePieceFill  = "#ffcccc"
	blackPieceFill  = "#003333"
	whitePieceEdge  = "#331a1a"
	blackPieceEdge  = "#99cccc"
)

type point struct{ x, y float64 }

type disc struct {
	center point
	r      float64
}

// glyph is a piece silhouette in unit square coordinates, origin top left.
type glyph struct {
	polygons [][]point
	discs    []disc
}

var glyphBase = []point{{0.25, 0.84}, {0.75, 0.84}, {0.75, 0.76}, {0.25, 0.76}}

var glyphs = map[chess.PieceType]glyph{
	chess.Pawn: {
		polygons: [][]point{{{0.38, 0.76}, {0.62, 0.76}, {0.56, 0.5}, {0.44, 0.5}}},
		discs:    []disc{{point{0.5, 0.4}, 0.11}},
	},
	chess.Rook: {
		polygons: [][]point{
			{{0.32, 0.76}, {0.68, 0.76}, {0.64, 0.36}, {0.36, 0.36}},
			{{0.3, 0.36}, {0.7, 0.36}, {0.7, 0.22}, {0.62, 0.22}, {0.62, 0.28}, {0.55, 0.28},
				{0.55, 0.22}, {0.45, 0.22}, {0.45, 0.28}, {0.38, 0.28}, {0.38, 0.22}, {0.3, 0.22}},
		},
	},
	chess.Knight: {
		polygons: [][]point{{{0.32, 0.76}, {0.7, 0.76}, {0.66, 0.46}, {0.6, 0.2}, {0.5, 0.24},
			{0.3, 0.4}, {0.34, 0.5}, {0.48, 0.44}, {0.4, 0.6}}},
	},
	chess.Bishop: {
		polygons: [][]point{{{0.36, 0.76}, {0.64, 0.76}, {0.58, 0.42}, {0.5, 0.26}, {0.42, 0.42}}},
		discs:    []disc{{point{0.5, 0.22}, 0.05}},
	},
	chess.Queen: {
		polygons: [][]point{{{0.32, 0.76}, {0.68, 0.76}, {0.74, 0.3}, {0.62, 0.5}, {0.56, 0.26},
			{0.5, 0.48}, {0.44, 0.26}, {0.38, 0.5}, {0.26, 0.3}}},
		discs: []disc{
			{point{0.26, 0.28}, 0.04},
			{point{0.44, 0.24}, 0.04},
			{point{0.56, 0.24}, 0.04},
			{point{0.74, 0.28}, 0.04},
		},
	},
	chess.King: {
		polygons: [][]point{
			{{0.32, 0.76}, {0.68, 0.76}, {0.62, 0.38}, {0.38, 0.38}},
			{{0.47, 0.38}, {0.53, 0.38}, {0.53, 0.26}, {0.6, 0.26}, {0.6, 0.2}, {0.53, 0.2},
				{0.53, 0.12}, {0.47, 0.12}, {0.47, 0.2}, {0.4, 0.2}, {0.4, 0.26}, {0.47, 0.26}},
		},
	},
}

// BoardSVG draws the state as an SVG document. Row 7 is at the top so
// White plays up the image.
func BoardSVG(state *chess.State, squareSize int) []byte {
	size := squareSize * chess.BoardSize

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		size, size, size, size)

	selected := map[chess.Square]bool{}
	if state.Selection.Square != nil {
		selected[*state.Selection.Square] = true
	}

	for _, sq := range chess.AllSquares() {
		fill := darkSquareFill
		switch {
		case selected[sq]:
			fill = selectedFill
		case sq.IsLight():
			fill = lightSquareFill
		}
		x, y := origin(sq, squareSize)
		fmt.Fprintf(&b, `<rect class="square" x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
			x, y, squareSize, squareSize, fill)
	}

	for _, sq := range state.Reachable {
		x, y := origin(sq, squareSize)
		s := float64(squareSize)
		fmt.Fprintf(&b, `<circle class="reachable" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
			float64(x)+s/2, float64(y)+s/2, s*0.15, reachableFill)
	}

	for _, p := range state.Pieces {
		writePiece(&b, p, squareSize)
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func writePiece(b *strings.Builder, p chess.Piece, squareSize int) {
	g, ok := glyphs[p.Type]
	if !ok {
		return
	}
	fill, edge := whitePieceFill, whitePieceEdge
	if p.Color == chess.Black {
		fill, edge = blackPieceFill, blackPieceEdge
	}
	x, y := origin(p.Square(), squareSize)
	s := float64(squareSize)
	at := func(pt point) (float64, float64) {
		return float64(x) + pt.x*s, float64(y) + pt.y*s
	}
	stroke := s / 32

	fmt.Fprintf(b, `<g class="piece" fill="%s" stroke="%s" stroke-width="%.2f">`+"\n", fill, edge, stroke)
	for _, poly := range append([][]point{glyphBase}, g.polygons...) {
		pts := make([]string, 0, len(poly))
		for _, pt := range poly {
			px, py := at(pt)
			pts = append(pts, fmt.Sprintf("%.2f,%.2f", px, py))
		}
		fmt.Fprintf(b, `<polygon points="%s"/>`+"\n", strings.Join(pts, " "))
	}
	for _, d := range g.discs {
		cx, cy := at(d.center)
		fmt.Fprintf(b, `<circle cx="%.2f" cy="%.2f" r="%.2f"/>`+"\n", cx, cy, d.r*s)
	}
	b.WriteString("</g>\n")
}

func origin(sq chess.Square, squareSize int) (int, int) {
	return sq.Y * squareSize, (chess.BoardSize - 1 - sq.X) * squareSize
}
