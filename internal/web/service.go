package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lvichess/lvichess/internal/chess"
	"github.com/lvichess/lvichess/internal/config"
	"github.com/lvichess/lvichess/internal/render"
)

// Service exposes one hot-seat game over HTTP and pushes its updates to
// WebSocket viewers.
type Service struct {
	engine   *chess.Engine
	renderer *render.Renderer
	hub      *Hub
	gameID   string
	config   *config.Config
	logger   zerolog.Logger

	// publishMu orders engine operations with their broadcasts, so viewers
	// see move and state frames in commit order.
	publishMu sync.Mutex

	onGameOver func(winner chess.Color)
	endOnce    sync.Once
}

// Option configures the service
type Option func(*Service)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithEngine serves an existing game instead of a fresh one.
func WithEngine(engine *chess.Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

// WithGameOverHook registers fn to run once after the winning move has
// been broadcast.
func WithGameOverHook(fn func(winner chess.Color)) Option {
	return func(s *Service) {
		s.onGameOver = fn
	}
}

func NewService(cfg *config.Config, hub *Hub, opts ...Option) *Service {
	s := &Service{
		hub:    hub,
		gameID: uuid.NewString(),
		config: cfg,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("gameID", s.gameID).Logger()
	if s.engine == nil {
		s.engine = chess.NewEngine(chess.WithLogger(s.logger))
	}
	s.renderer = render.NewRenderer(cfg.Render.SquareSize, render.WithLogger(s.logger))
	return s
}

// GameID identifies the game this service runs.
func (s *Service) GameID() string {
	return s.gameID
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":     "ok",
		"gameId":     s.gameID,
		"gameStatus": string(s.engine.GetStatus()),
	})
}

func (s *Service) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.engine.GetState())
}

// SelectRequest picks a square. Coordinates off the board deselect.
type SelectRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (s *Service) SelectHandler(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.X == nil || req.Y == nil {
		http.Error(w, "x and y are required", http.StatusBadRequest)
		return
	}

	sq := chess.NewSquare(*req.X, *req.Y)
	s.logger.Debug().Str("square", sq.String()).Msg("SelectHandler called")

	s.respond(w, func() *chess.Outcome { return s.engine.Select(sq) })
}

func (s *Service) DeselectHandler(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.engine.Deselect)
}

type MakeMoveRequest struct {
	From *chess.Square `json:"from"`
	To   *chess.Square `json:"to"`
}

func (s *Service) MakeMoveHandler(w http.ResponseWriter, r *http.Request) {
	var req MakeMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.From == nil || req.To == nil {
		http.Error(w, "from and to are required", http.StatusBadRequest)
		return
	}

	s.logger.Debug().
		Str("from", req.From.String()).
		Str("to", req.To.String()).
		Msg("MakeMoveHandler called")

	s.respond(w, func() *chess.Outcome { return s.engine.MakeMove(*req.From, *req.To) })
}

func (s *Service) BoardSVGHandler(w http.ResponseWriter, r *http.Request) {
	data, err := s.renderer.SVG(r.Context(), s.engine.GetState())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to render board svg")
		http.Error(w, "Failed to render board", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(data)
}

func (s *Service) BoardPNGHandler(w http.ResponseWriter, r *http.Request) {
	data, err := s.renderer.PNG(r.Context(), s.engine.GetState())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to render board png")
		http.Error(w, "Failed to render board", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// respond runs op, fans its outcome out to viewers and writes it. Rules
// never fail a request; an illegal move is a 200 with an invalid move
// result.
func (s *Service) respond(w http.ResponseWriter, op func() *chess.Outcome) {
	s.publishMu.Lock()
	out := op()
	ended := s.publish(out)
	s.publishMu.Unlock()

	if ended {
		s.endGame(*out.Winner)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// publish broadcasts the outcome and reports whether it ended the game.
func (s *Service) publish(out *chess.Outcome) bool {
	if out.Ignored {
		return false
	}

	kind := UpdateSelection
	if out.Committed() {
		kind = UpdateMove
	}
	s.hub.BroadcastGameUpdate(GameUpdate{GameID: s.gameID, Type: kind, Data: out})
	if out.Committed() {
		s.hub.BroadcastGameUpdate(GameUpdate{GameID: s.gameID, Type: UpdateState, Data: s.engine.GetState()})
	}

	return out.Move != nil && out.Move.GameOver && out.Winner != nil
}

// GameEnd is the payload of a game_end update.
type GameEnd struct {
	Winner  chess.Color      `json:"winner"`
	Status  chess.GameStatus `json:"status"`
	Message string           `json:"message"`
}

func (s *Service) endGame(winner chess.Color) {
	s.endOnce.Do(func() {
		end := GameEnd{
			Winner:  winner,
			Status:  s.engine.GetStatus(),
			Message: fmt.Sprintf("%s won! Thanks for playing!", winner.Title()),
		}
		s.hub.BroadcastGameUpdate(GameUpdate{GameID: s.gameID, Type: UpdateGameEnd, Data: end})

		s.logger.Info().Str("winner", winner.String()).Msg("Game over")

		if s.onGameOver != nil {
			s.onGameOver(winner)
		}
	})
}
