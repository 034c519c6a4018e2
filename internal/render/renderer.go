package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/rs/zerolog"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/lvichess/lvichess/internal/chess"
)

// DefaultSquareSize is used when the renderer is built with a size too
// small to draw a glyph.
const DefaultSquareSize = 64

// Renderer turns game state into board snapshots.
type Renderer struct {
	squareSize int
	logger     zerolog.Logger
}

// Option configures the renderer
type Option func(*Renderer)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

func NewRenderer(squareSize int, opts ...Option) *Renderer {
	if squareSize < 8 {
		squareSize = DefaultSquareSize
	}
	r := &Renderer{
		squareSize: squareSize,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size is the edge length of a rendered board in pixels.
func (r *Renderer) Size() int {
	return r.squareSize * chess.BoardSize
}

func (r *Renderer) SVG(ctx context.Context, state *chess.State) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("state is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BoardSVG(state, r.squareSize), nil
}

// PNG rasterizes the board SVG.
func (r *Renderer) PNG(ctx context.Context, state *chess.State) ([]byte, error) {
	doc, err := r.SVG(ctx, state)
	if err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse board svg: %w", err)
	}

	size := r.Size()
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	r.logger.Debug().
		Int("size", size).
		Int("pieces", len(state.Pieces)).
		Int("bytes", buf.Len()).
		Msg("Rendered board snapshot")

	return buf.Bytes(), nil
}
