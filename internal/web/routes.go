package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the service's handlers under /api.
func NewRouter(s *Service) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// API routes
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.HealthHandler).Methods("GET")
	api.HandleFunc("/game", s.GetGameHandler).Methods("GET")
	api.HandleFunc("/game/summary", s.GetSummaryHandler).Methods("GET")
	api.HandleFunc("/game/diagram", s.GetDiagramHandler).Methods("GET")
	api.HandleFunc("/game/select", s.SelectHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/game/deselect", s.DeselectHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/game/move", s.MakeMoveHandler).Methods("POST", "OPTIONS")
	api.HandleFunc("/game/board.svg", s.BoardSVGHandler).Methods("GET")
	api.HandleFunc("/game/board.png", s.BoardPNGHandler).Methods("GET")
	api.HandleFunc("/game/ws", s.WebSocketHandler).Methods("GET")

	// Serve static files
	if dir := s.config.Server.StaticDir; dir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(dir)))
	}

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
