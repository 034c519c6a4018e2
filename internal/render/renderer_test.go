package render

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvichess/lvichess/internal/chess"
)

func TestBoardSVGDrawsEverySquareAndPiece(t *testing.T) {
	state := chess.NewEngine().GetState()
	doc := string(BoardSVG(state, 32))

	assert.True(t, strings.HasPrefix(doc, "<svg"))
	assert.Equal(t, 64, strings.Count(doc, `class="square"`))
	assert.Equal(t, 32, strings.Count(doc, `class="piece"`))
	assert.Equal(t, 0, strings.Count(doc, `class="reachable"`))
	assert.Contains(t, doc, `width="256" height="256"`)
}

func TestBoardSVGHighlightsSelection(t *testing.T) {
	engine := chess.NewEngine()
	engine.Select(chess.NewSquare(0, 1)) // knight

	doc := string(BoardSVG(engine.GetState(), 32))

	assert.Equal(t, 1, strings.Count(doc, selectedFill))
	assert.Equal(t, 2, strings.Count(doc, `class="reachable"`))
}

func TestRendererPNG(t *testing.T) {
	r := NewRenderer(32)
	data, err := r.PNG(context.Background(), chess.NewEngine().GetState())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())

	// Top left corner is row 7 column 0, a light square. The rook glyph
	// leaves its corner empty.
	cr, cg, cb, ca := img.At(2, 2).RGBA()
	assert.InDelta(t, 0xff, cr>>8, 2)
	assert.InDelta(t, 0xe6, cg>>8, 2)
	assert.InDelta(t, 0xe6, cb>>8, 2)
	assert.InDelta(t, 0xff, ca>>8, 2)

	// Next square along is dark.
	cr, cg, cb, _ = img.At(32+2, 2).RGBA()
	assert.InDelta(t, 0x00, cr>>8, 2)
	assert.InDelta(t, 0x1a, cg>>8, 2)
	assert.InDelta(t, 0x1a, cb>>8, 2)
}

func TestRendererFallsBackToDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultSquareSize*chess.BoardSize, NewRenderer(0).Size())
}

func TestRendererHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRenderer(16).PNG(ctx, chess.NewEngine().GetState())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewRenderer(16).SVG(ctx, chess.NewEngine().GetState())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRendererRejectsNilState(t *testing.T) {
	_, err := NewRenderer(16).PNG(context.Background(), nil)
	assert.Error(t, err)
}
