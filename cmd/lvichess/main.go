package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lvichess/lvichess/internal/chess"
	"github.com/lvichess/lvichess/internal/config"
	"github.com/lvichess/lvichess/internal/web"
)

func main() {
	// Parse command line flags
	var showHelp bool
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	// Setup logging
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Development.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.Development.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	if cfg.Development.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := web.NewHub()
	go hub.Run(ctx)

	gameOver := make(chan chess.Color, 1)
	service := web.NewService(cfg, hub,
		web.WithGameOverHook(func(winner chess.Color) {
			gameOver <- winner
		}),
	)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      web.NewRouter(service),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("gameID", service.GameID()).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal or the end of the game
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for waiting := true; waiting; {
		select {
		case <-quit:
			waiting = false
		case winner := <-gameOver:
			if cfg.Game.ExitOnGameOver {
				log.Info().Str("winner", winner.String()).Msg("Game finished, exiting")
				// Give viewers a moment to receive the final updates
				time.Sleep(time.Second)
				waiting = false
			}
		}
	}
	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	cancel()

	log.Info().Msg("Server exited")
}

func showHelpMessage() {
	fmt.Println(`lvichess

DESCRIPTION:
    Hot-seat chess for two players sharing one board. Runs a single game
    and serves it over HTTP so a browser or any HTTP client can pick
    squares and watch the board. Moves follow simplified rules: no check,
    no promotion, no en passant. The game ends when a king is taken.

USAGE:
    lvichess [OPTIONS]

OPTIONS:
    -h, --help    Show this help message

CONFIGURATION:
    Read from config.yaml in the current directory or ./config. Every key
    can be overridden with an LVICHESS_ environment variable, for example
    LVICHESS_SERVER_PORT=9000.

    Example config.yaml:
        server:
          host: localhost
          port: 8080
          static_dir: ./web/static   # optional browser viewer

        development:
          debug: false
          log_level: info

        game:
          exit_on_game_over: true

        render:
          square_size: 64

API ENDPOINTS:
    GET  /api/health              - Service health check
    GET  /api/game                - Full game state
    GET  /api/game/summary        - Status, material and viewer count
    GET  /api/game/diagram        - Text drawing of the board
    POST /api/game/select         - Select a square {"x":1,"y":4}
    POST /api/game/deselect       - Clear the selection
    POST /api/game/move           - Move {"from":{"x":1,"y":4},"to":{"x":3,"y":4}}
    GET  /api/game/board.svg      - Board snapshot as SVG
    GET  /api/game/board.png      - Board snapshot as PNG
    GET  /api/game/ws             - WebSocket stream of updates

COORDINATES:
    x is the row, 0 to 7, with White's back rank on row 0.
    y is the column, 0 to 7.

EXAMPLES:
    # Start with default configuration
    lvichess

    # Open with the king's pawn
    curl -X POST http://localhost:8080/api/game/move \
      -H "Content-Type: application/json" \
      -d '{"from":{"x":1,"y":4},"to":{"x":3,"y":4}}'

SEE ALSO:
    lvichess-term(1), config.yaml(5)`)
}
