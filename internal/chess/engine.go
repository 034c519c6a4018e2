package chess

import (
	"sync"

	"github.com/rs/zerolog"
)

// Engine runs one game: it owns the board, the turn and the selection, and
// resolves square selections into moves. All methods are safe for
// concurrent use; each one runs under the engine lock from start to finish.
type Engine struct {
	mu sync.Mutex

	board  *Board
	turn   Turn
	status GameStatus

	selectedSquare *Square
	selectedPiece  *PieceID

	logger     zerolog.Logger
	onGameOver func(winner Color)
}

// Option configures the engine
type Option func(*Engine)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithGameOverHandler registers fn to run once when a king is taken. It is
// called outside the engine lock.
func WithGameOverHandler(fn func(winner Color)) Option {
	return func(e *Engine) {
		e.onGameOver = fn
	}
}

// NewEngine starts a game from the standard position with White to move.
func NewEngine(opts ...Option) *Engine {
	return NewEngineFromBoard(NewStandardBoard(), White, opts...)
}

// NewEngineFromBoard starts a game from an arbitrary position.
func NewEngineFromBoard(board *Board, toMove Color, opts ...Option) *Engine {
	e := &Engine{
		board:  board,
		turn:   NewTurn(toMove),
		status: StatusActive,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Select feeds one square selection into the engine.
//
// With no piece selected, a square holding a piece of the side to move
// selects that piece, a square holding an opposing piece is only
// highlighted, and an empty square clears the selection. With a piece
// selected, any other square is a move attempt; the selection is reset
// afterwards whether or not the move was legal. Selecting the same square
// twice, or a square off the board, deselects.
func (e *Engine) Select(sq Square) *Outcome {
	e.mu.Lock()
	out, ended := e.selectLocked(sq)
	e.mu.Unlock()

	e.notifyGameOver(ended)
	return out
}

// MakeMove selects from and then to as one indivisible operation.
func (e *Engine) MakeMove(from, to Square) *Outcome {
	e.mu.Lock()
	if e.status != StatusActive {
		out := e.outcome(nil, false)
		out.Ignored = true
		e.mu.Unlock()
		return out
	}
	e.clearSelection()
	out, ended := e.selectLocked(from)
	if out.Selection.State == SelectionPiece {
		out, ended = e.selectLocked(to)
	} else {
		e.clearSelection()
		out = e.outcome(nil, true)
	}
	e.mu.Unlock()

	e.notifyGameOver(ended)
	return out
}

// Deselect clears any selection.
func (e *Engine) Deselect() *Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusActive {
		out := e.outcome(nil, false)
		out.Ignored = true
		return out
	}
	e.clearSelection()
	return e.outcome(nil, true)
}

func (e *Engine) selectLocked(sq Square) (*Outcome, bool) {
	if e.status != StatusActive {
		out := e.outcome(nil, false)
		out.Ignored = true
		return out, false
	}

	if !sq.Valid() {
		e.clearSelection()
		return e.outcome(nil, true), false
	}

	if e.selectedPiece != nil {
		if e.selectedSquare != nil && *e.selectedSquare == sq {
			e.clearSelection()
			return e.outcome(nil, true), false
		}
		return e.commit(sq)
	}

	p, ok := e.board.PieceAt(sq)
	switch {
	case !ok:
		e.clearSelection()
		return e.outcome(nil, true), false
	case p.Color == e.turn.Current():
		e.selectedSquare = &sq
		id := p.ID
		e.selectedPiece = &id
		e.logger.Debug().
			Str("square", sq.String()).
			Str("piece", p.Type.String()).
			Str("color", p.Color.String()).
			Msg("Piece selected")
	default:
		e.selectedSquare = &sq
		e.selectedPiece = nil
	}
	return e.outcome(nil, false), false
}

// commit resolves a move of the selected piece to target. It reports
// whether the move ended the game.
func (e *Engine) commit(target Square) (*Outcome, bool) {
	mover, ok := e.board.Piece(*e.selectedPiece)
	if !ok {
		e.clearSelection()
		return e.outcome(nil, true), false
	}

	snapshot := e.board.Pieces()
	res := &MoveResult{
		Piece: mover,
		From:  mover.Square(),
		To:    target,
	}

	if !mover.IsMoveValid(target, snapshot) {
		e.logger.Debug().
			Str("piece", mover.Type.String()).
			Str("color", mover.Color.String()).
			Str("from", res.From.String()).
			Str("to", target.String()).
			Msg("Move rejected")
		e.clearSelection()
		return e.outcome(res, true), false
	}
	res.Valid = true

	var removals []PieceID
	var rookDest Square

	if side, ok := castlingSide(mover, target); ok {
		corner, dest := rookCorner(mover.Color, side)
		for _, other := range snapshot {
			if other.Type == Rook && other.Color == mover.Color && other.Square() == corner {
				removals = append(removals, other.ID)
				res.Castle = &CastleResult{Side: side, RookRemoved: other.ID}
				rookDest = dest
				break
			}
		}
	}

	for _, other := range snapshot {
		if other.Square() == target && other.Color != mover.Color {
			res.Taken = append(res.Taken, other)
			removals = append(removals, other.ID)
		}
	}

	for _, id := range removals {
		e.board.Remove(id)
	}
	if res.Castle != nil {
		id := e.board.mustSpawn(Rook, mover.Color, rookDest)
		res.Castle.Rook, _ = e.board.Piece(id)
	}

	e.board.place(mover.ID, target)
	res.Piece, _ = e.board.Piece(mover.ID)

	e.turn.Advance()
	res.TurnChanged = true

	e.logger.Info().
		Str("piece", mover.Type.String()).
		Str("color", mover.Color.String()).
		Str("from", res.From.String()).
		Str("to", target.String()).
		Int("taken", len(res.Taken)).
		Bool("castle", res.Castle != nil).
		Str("turn", e.turn.Current().String()).
		Msg("Move committed")

	ended := e.detectGameEnd(res.Taken)
	if ended {
		res.GameOver = true
		res.Result = string(e.status)
	}

	e.clearSelection()
	return e.outcome(res, true), ended
}

// detectGameEnd ends the game when one of the taken pieces is a king.
func (e *Engine) detectGameEnd(taken []Piece) bool {
	if e.status != StatusActive {
		return false
	}
	for _, p := range taken {
		if p.Type != King {
			continue
		}
		winner := p.Color.Opposite()
		e.status = statusFor(winner)
		e.logger.Info().
			Str("winner", winner.String()).
			Msgf("%s won! Thanks for playing!", winner.Title())
		return true
	}
	return false
}

func (e *Engine) notifyGameOver(ended bool) {
	if !ended || e.onGameOver == nil {
		return
	}
	if winner, ok := e.Winner(); ok {
		e.onGameOver(winner)
	}
}

func statusFor(winner Color) GameStatus {
	if winner == White {
		return StatusWhiteWon
	}
	return StatusBlackWon
}

func (e *Engine) clearSelection() {
	e.selectedSquare = nil
	e.selectedPiece = nil
}

func (e *Engine) selection() Selection {
	sel := Selection{State: SelectionIdle}
	if e.selectedSquare != nil {
		sq := *e.selectedSquare
		sel.Square = &sq
		sel.State = SelectionSquare
	}
	if e.selectedPiece != nil {
		id := *e.selectedPiece
		sel.Piece = &id
		sel.State = SelectionPiece
	}
	return sel
}

func (e *Engine) outcome(move *MoveResult, reset bool) *Outcome {
	return &Outcome{
		Selection:      e.selection(),
		Move:           move,
		SelectionReset: reset,
		Turn:           e.turn.Current(),
		Status:         e.status,
		Winner:         e.winnerLocked(),
	}
}

func (e *Engine) winnerLocked() *Color {
	var c Color
	switch e.status {
	case StatusWhiteWon:
		c = White
	case StatusBlackWon:
		c = Black
	default:
		return nil
	}
	return &c
}

// Winner returns the winning color once the game is over.
func (e *Engine) Winner() (Color, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w := e.winnerLocked(); w != nil {
		return *w, true
	}
	return White, false
}

func (e *Engine) GetStatus() GameStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// GetActiveColor returns the color to move.
func (e *Engine) GetActiveColor() Color {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turn.Current()
}

func (e *Engine) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection()
}

func (e *Engine) Pieces() []Piece {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Pieces()
}

func (e *Engine) PieceAt(sq Square) (Piece, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.PieceAt(sq)
}

// Reachable reports whether the selected piece may move to sq.
func (e *Engine) Reachable(sq Square) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reachable(e.board.Pieces(), sq)
}

// ReachableSquares lists every square the selected piece may move to.
func (e *Engine) ReachableSquares() []Square {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reachableSquares()
}

func (e *Engine) reachable(snapshot []Piece, sq Square) bool {
	if e.selectedPiece == nil || e.status != StatusActive {
		return false
	}
	mover, ok := e.board.Piece(*e.selectedPiece)
	if !ok {
		return false
	}
	return mover.IsMoveValid(sq, snapshot)
}

func (e *Engine) reachableSquares() []Square {
	out := []Square{}
	if e.selectedPiece == nil {
		return out
	}
	snapshot := e.board.Pieces()
	for _, sq := range AllSquares() {
		if e.reachable(snapshot, sq) {
			out = append(out, sq)
		}
	}
	return out
}

func (e *Engine) GetMaterialCount() MaterialCount {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.MaterialCount()
}

// GetState returns a consistent view of the whole game for renderers.
func (e *Engine) GetState() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &State{
		Pieces:        e.board.Pieces(),
		Turn:          e.turn.Current(),
		Selection:     e.selection(),
		Reachable:     e.reachableSquares(),
		Status:        e.status,
		Winner:        e.winnerLocked(),
		MaterialCount: e.board.MaterialCount(),
		Placement:     e.board.Placement(),
	}
}

// Diagram draws the current board as text.
func (e *Engine) Diagram() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Diagram()
}
