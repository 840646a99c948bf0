package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/voyagen/upnext/internal/auth"
	"github.com/voyagen/upnext/internal/models"
	"github.com/voyagen/upnext/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	for _, p := range s.health {
		if err := p.Ping(r.Context()); err != nil {
			s.log.Warn(r.Context(), "health check failed", "error", err)
			s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	view, err := s.queue.List(r.Context(), r.PathValue("owner"), auth.UserID(r.Context()))
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, view)
}

type submitRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, APIError{
			Status: http.StatusBadRequest,
			Error:  http.StatusText(http.StatusBadRequest),
			Code:   string(service.KindInvalidInput),
			Detail: fmt.Sprintf("invalid JSON: %v", err),
		})
		return
	}

	item, err := s.queue.Submit(r.Context(), r.PathValue("owner"), auth.UserID(r.Context()), req.URL)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, item)
}

func (s *Server) handleEmptyQueue(w http.ResponseWriter, r *http.Request) {
	n, err := s.queue.Empty(r.Context(), r.PathValue("owner"), auth.UserID(r.Context()))
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"removed": n})
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	err := s.queue.Remove(r.Context(), r.PathValue("owner"), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handlePlayNext(w http.ResponseWriter, r *http.Request) {
	entry, err := s.queue.PlayNext(r.Context(), r.PathValue("owner"), auth.UserID(r.Context()))
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleVote(dir models.VoteDirection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.queue.Vote(r.Context(), r.PathValue("id"), auth.UserID(r.Context()), dir)
		if err != nil {
			s.writeServiceErr(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, res)
	}
}
