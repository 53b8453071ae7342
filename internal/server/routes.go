package server

import (
	"net/http"

	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (chat clients)
	mux.HandleFunc("/ws", s.app.ChatHandler.HandleWebSocket)

	// API routes - Filter management
	mux.HandleFunc("/api/filters", s.app.FilterHandler.ListFiltersHandler) // GET - list saved filters
	mux.HandleFunc("/api/filters/", s.app.FilterHandler.FilterHandler)     // GET/PUT/DELETE /{name}

	// API routes - System
	mux.HandleFunc("/api/version", s.versionHandler)
	mux.HandleFunc("/health", s.healthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.RequireMethod(w, r, http.MethodGet) {
		return
	}

	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"chat_clients": s.app.ChatHandler.ClientCount(),
	})
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.RequireMethod(w, r, http.MethodGet) {
		return
	}

	handlers.WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetFullVersion(),
	})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, http.StatusNotFound, "Not found: "+r.URL.Path)
}
