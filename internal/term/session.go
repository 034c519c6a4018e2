package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/lvichess/lvichess/internal/chess"
)

const usage = "commands: <x> <y> select, <x1> <y1> <x2> <y2> move, d deselect, p print, q quit"

var (
	lightCell     = color.New(color.FgBlack, color.BgHiWhite)
	darkCell      = color.New(color.FgHiWhite, color.BgBlack)
	selectedCell  = color.New(color.FgHiWhite, color.BgRed)
	reachableCell = color.New(color.FgBlack, color.BgYellow)
	header        = color.New(color.Bold)
)

// Session plays one hot-seat game on a terminal.
type Session struct {
	engine *chess.Engine
	in     *bufio.Reader
	out    io.Writer
	logger zerolog.Logger
}

// Option configures the session
type Option func(*Session)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func NewSession(engine *chess.Engine, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		engine: engine,
		in:     bufio.NewReader(in),
		out:    out,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads commands until the game ends, the input closes or the player
// quits.
func (s *Session) Run(ctx context.Context) error {
	s.printBoard()
	fmt.Fprintln(s.out, usage)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.in.ReadString('\n')
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return fmt.Errorf("read command: %w", err)
		}

		done, cmdErr := s.handle(strings.Fields(line))
		if cmdErr != nil {
			s.logger.Debug().Err(cmdErr).Str("line", strings.TrimSpace(line)).Msg("Bad command")
			fmt.Fprintf(s.out, "%v\n%s\n", cmdErr, usage)
		}
		if done || eof {
			return nil
		}
	}
}

func (s *Session) handle(args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "q", "quit":
		return true, nil
	case "d":
		s.report(s.engine.Deselect())
		return false, nil
	case "p":
		s.printBoard()
		return false, nil
	}

	coords := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return false, fmt.Errorf("unknown command %q", strings.Join(args, " "))
		}
		coords = append(coords, n)
	}

	var out *chess.Outcome
	switch len(coords) {
	case 2:
		out = s.engine.Select(chess.NewSquare(coords[0], coords[1]))
	case 4:
		out = s.engine.MakeMove(chess.NewSquare(coords[0], coords[1]), chess.NewSquare(coords[2], coords[3]))
	default:
		return false, fmt.Errorf("want 2 or 4 coordinates, got %d", len(coords))
	}

	s.report(out)
	return out.Status != chess.StatusActive, nil
}

func (s *Session) report(out *chess.Outcome) {
	if out.Ignored {
		fmt.Fprintln(s.out, "game is over")
		return
	}

	if out.Move != nil {
		fmt.Fprint(s.out, DescribeMove(out.Move))
	}

	s.printBoard()

	if out.Winner != nil {
		fmt.Fprintf(s.out, "%s won! Thanks for playing!\n", out.Winner.Title())
		return
	}
	fmt.Fprintf(s.out, "%s to move\n", out.Turn.Title())
}

// DescribeMove writes a move result as one line, plus one line per taken
// piece.
func DescribeMove(mv *chess.MoveResult) string {
	var b strings.Builder
	switch {
	case !mv.Valid:
		fmt.Fprintf(&b, "%s %s cannot move %s -> %s\n", mv.Piece.Color, mv.Piece.Type, mv.From, mv.To)
	case mv.Castle != nil:
		fmt.Fprintf(&b, "%s castles %s\n", mv.Piece.Color.Title(), mv.Castle.Side)
	default:
		fmt.Fprintf(&b, "%s %s %s -> %s\n", mv.Piece.Color.Title(), mv.Piece.Type, mv.From, mv.To)
	}
	for _, p := range mv.Taken {
		fmt.Fprintf(&b, "  takes %s %s\n", p.Color, p.Type)
	}
	return b.String()
}

func (s *Session) printBoard() {
	fmt.Fprint(s.out, Draw(s.engine.GetState()))
}

// Draw renders the state as a colored grid with row 7 on top.
func Draw(state *chess.State) string {
	occupancy := chess.NewOccupancy(state.Pieces)
	reachable := make(map[chess.Square]bool, len(state.Reachable))
	for _, sq := range state.Reachable {
		reachable[sq] = true
	}

	var b strings.Builder
	for x := chess.BoardSize - 1; x >= 0; x-- {
		b.WriteString(header.Sprintf(" %d ", x))
		for y := 0; y < chess.BoardSize; y++ {
			sq := chess.NewSquare(x, y)
			sym := " "
			if p, ok := occupancy.At(sq); ok {
				sym = symbol(p)
			}

			cell := darkCell
			switch {
			case state.Selection.Square != nil && *state.Selection.Square == sq:
				cell = selectedCell
			case reachable[sq]:
				cell = reachableCell
			case sq.IsLight():
				cell = lightCell
			}
			b.WriteString(cell.Sprintf(" %s ", sym))
		}
		b.WriteString("\n")
	}
	b.WriteString("   ")
	for y := 0; y < chess.BoardSize; y++ {
		b.WriteString(header.Sprintf(" %d ", y))
	}
	b.WriteString("\n")
	return b.String()
}

var symbols = [...]string{
	chess.King:   "k",
	chess.Queen:  "q",
	chess.Rook:   "r",
	chess.Bishop: "b",
	chess.Knight: "n",
	chess.Pawn:   "p",
}

func symbol(p chess.Piece) string {
	if int(p.Type) >= len(symbols) {
		return "?"
	}
	if p.Color == chess.White {
		return strings.ToUpper(symbols[p.Type])
	}
	return symbols[p.Type]
}
