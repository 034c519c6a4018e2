package main

import (
	"encoding/json"
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
	"github.com/lvichess/lvichess/internal/watch"
)

func main() {
	var (
		showHelp bool
		url      string
	)
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.StringVar(&url, "url", "", "Game stream URL (defaults to the configured server)")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if !cfg.Development.Debug {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	if url == "" {
		url = fmt.Sprintf("ws://%s/api/game/ws", cfg.Server.Addr())
	}

	client := watch.NewClient(url, printUpdate, watch.WithLogger(log.Logger))
	if err := client.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start watching")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		_ = client.Stop()
	case <-client.Done():
	}

	if err := client.Err(); err != nil {
		log.Fatal().Err(err).Msg("Watch failed")
	}
}

func printUpdate(update watch.Update) error {
	switch update.Type {
	case "state":
		var state chess.State
		if err := json.Unmarshal(update.Data, &state); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
		fmt.Print(term.Draw(&state))
		if state.Winner == nil {
			fmt.Printf("%s to move\n", state.Turn.Title())
		}
	case "move":
		var out chess.Outcome
		if err := json.Unmarshal(update.Data, &out); err != nil {
			return fmt.Errorf("decode move: %w", err)
		}
		if out.Move != nil {
			fmt.Print(term.DescribeMove(out.Move))
		}
	case "game_end":
		var end struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(update.Data, &end); err != nil {
			return fmt.Errorf("decode game end: %w", err)
		}
		fmt.Println(end.Message)
		return watch.ErrStop
	}
	return nil
}

func showHelpMessage() {
	fmt.Println(`lvichess-watch

DESCRIPTION:
    Follows a running lvichess game and prints the board after every
    move. Reconnects if the server goes away and stops when a king is
    taken.

USAGE:
    lvichess-watch [OPTIONS]

OPTIONS:
    -h, --help     Show this help message
    --url <url>    Game stream URL, default ws://<server.host>:<server.port>/api/game/ws`)
}
