package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/thewizster/mysse/pkg/engine"
)

type addRequest struct {
	Documents []engine.Document `json:"documents"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := s.engine.Add(r.Context(), req.Documents); err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"added": len(req.Documents), "size": s.engine.Size()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	results, err := s.engine.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, ok := s.engine.Get(id)
	if !ok {
		sendJSON(w, http.StatusNotFound, errorResponse{Error: "document not found"})
		return
	}
	sendJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed := s.engine.Delete(id)
	status := http.StatusOK
	if !removed {
		status = http.StatusNotFound
	}
	sendJSON(w, status, map[string]any{"removed": removed})
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.engine.Clear()
	sendJSON(w, http.StatusOK, map[string]any{"size": 0})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.engine.Dump(w); err != nil {
		s.log.Error("export failed", "err", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Restore(r.Context(), r.Body); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"size": s.engine.Size()})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handlePowers(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{"powers": s.engine.Powers()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{"status": "ok", "size": s.engine.Size()})
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
