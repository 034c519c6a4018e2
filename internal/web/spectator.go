package web

import (
	"encoding/json"
	"net/http"

	"github.com/lvichess/lvichess/internal/chess"
)

// GameSummary is a compact view of the game for spectators
type GameSummary struct {
	GameID         string              `json:"gameId"`
	Status         chess.GameStatus    `json:"status"`
	Turn           chess.Color         `json:"turn"`
	Winner         *chess.Color        `json:"winner,omitempty"`
	PieceCount     int                 `json:"pieceCount"`
	MaterialCount  chess.MaterialCount `json:"materialCount"`
	MaterialDiff   int                 `json:"materialDiff"`
	Placement      string              `json:"placement"`
	SpectatorCount int                 `json:"spectatorCount"`
}

// GetSummaryHandler returns game data optimized for spectators
func (s *Service) GetSummaryHandler(w http.ResponseWriter, r *http.Request) {
	state := s.engine.GetState()

	summary := GameSummary{
		GameID:         s.gameID,
		Status:         state.Status,
		Turn:           state.Turn,
		Winner:         state.Winner,
		PieceCount:     len(state.Pieces),
		MaterialCount:  state.MaterialCount,
		MaterialDiff:   state.MaterialCount.Balance(),
		Placement:      state.Placement,
		SpectatorCount: s.hub.ClientCount(s.gameID),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

// GetDiagramHandler returns the board as a plain text drawing
func (s *Service) GetDiagramHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.engine.Diagram()))
}
