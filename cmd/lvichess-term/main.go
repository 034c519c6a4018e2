package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lvichess/lvichess/internal/chess"
	"github.com/lvichess/lvichess/internal/config"
	"github.com/lvichess/lvichess/internal/term"
)

func main() {
	var (
		showHelp  bool
		placement string
		black     bool
	)
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.StringVar(&placement, "position", "", "Start from a FEN piece placement instead of the standard position")
	flag.BoolVar(&black, "black", false, "Black moves first")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	// Logs go to stderr so they do not interleave with the board
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	level := zerolog.WarnLevel
	if cfg.Development.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	board := chess.NewStandardBoard()
	if placement != "" {
		board, err = chess.ParsePlacement(placement)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid position")
		}
	}
	first := chess.White
	if black {
		first = chess.Black
	}

	engine := chess.NewEngineFromBoard(board, first,
		chess.WithLogger(log.Logger),
		chess.WithGameOverHandler(func(winner chess.Color) {
			log.Debug().Str("winner", winner.String()).Msg("Game over")
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := term.NewSession(engine, os.Stdin, os.Stdout, term.WithLogger(log.Logger))
	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Session failed")
	}
}

func showHelpMessage() {
	fmt.Println(`lvichess-term

DESCRIPTION:
    Hot-seat chess on the terminal. Both players type at the same prompt.

USAGE:
    lvichess-term [OPTIONS]

OPTIONS:
    -h, --help           Show this help message
    --position <fen>     Start from a FEN piece placement
    --black              Black moves first

COMMANDS:
    <x> <y>              Select a square (x is the row, y the column)
    <x1> <y1> <x2> <y2>  Move from one square to another
    d                    Deselect
    p                    Print the board
    q                    Quit

EXAMPLES:
    # Kingside castle practice
    lvichess-term --position "r3k2r/8/8/8/8/8/8/R3K2R"`)
}
