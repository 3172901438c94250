package gateway

import (
	"errors"
	"net/http"

	"github.com/dohr-michael/dayplan/internal/assistant"
)

type chatResponse struct {
	Success bool `json:"success"`
	*assistant.Reply
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant not available")
		return
	}

	var req assistant.Request
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	reply, err := s.assistant.Reply(r.Context(), req)
	if err != nil {
		if errors.Is(err, assistant.ErrMissingFields) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeDomainError(w, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Success: true, Reply: reply})
}
