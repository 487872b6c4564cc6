package api

import (
	"net/http"
	"strings"

	"amc.com/dart-feedback/internal/core"
)

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.GetSession(eventFrom(r).ID)
	if err != nil {
		writeError(w, err, "load chat")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type QueryRequest struct {
	Query string `json:"query"`
}

func (h *APIHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	rec, err := h.chatService.RunQuery(r.Context(), eventFrom(r).ID, req.Query)
	if err != nil {
		writeError(w, err, "run query")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *APIHandler) RerunLastQueryHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := h.chatService.RerunLastQuery(r.Context(), eventFrom(r).ID)
	if err != nil {
		writeError(w, err, "rerun query")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *APIHandler) UpdateConfigHandler(w http.ResponseWriter, r *http.Request) {
	var update core.ConfigUpdate
	if !decodeBody(w, r, &update) {
		return
	}

	session, err := h.chatService.UpdateConfig(eventFrom(r).ID, update)
	if err != nil {
		writeError(w, err, "update chat config")
		return
	}
	writeJSON(w, http.StatusOK, session.Config)
}

func (h *APIHandler) ToggleSummarizeHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.ToggleSummarize(eventFrom(r).ID)
	if err != nil {
		writeError(w, err, "toggle summarize")
		return
	}
	writeJSON(w, http.StatusOK, session.Config)
}

func (h *APIHandler) ClearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.chatService.ClearHistory(eventFrom(r).ID); err != nil {
		writeError(w, err, "clear chat history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
