package api

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"amc.com/dart-feedback/internal/store"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

const maxUploadBytes = 10 << 20

// EventAccessMiddleware resolves {eventID} and rejects users who are not
// invited to the event.
func (h *APIHandler) EventAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid event ID", http.StatusBadRequest)
			return
		}

		event, err := h.eventService.Authorize(eventID, userIDFrom(r))
		if err != nil {
			writeError(w, err, "load event")
			return
		}

		ctx := context.WithValue(r.Context(), eventKey, event)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func eventFrom(r *http.Request) *store.Event {
	return r.Context().Value(eventKey).(*store.Event)
}

type CreateEventRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *APIHandler) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := h.eventService.CreateEvent(userID, req.Name, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err, "create event")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *APIHandler) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(userIDFrom(r))
	if err != nil {
		writeError(w, err, "list events")
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *APIHandler) GetEventHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, eventFrom(r))
}

type InviteRequest struct {
	UserID string `json:"user_id"`
}

func (h *APIHandler) InviteHandler(w http.ResponseWriter, r *http.Request) {
	event := eventFrom(r)

	var req InviteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	if err := h.eventService.InviteUser(event.ID, strings.TrimSpace(req.UserID)); err != nil {
		writeError(w, err, "invite user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	event := eventFrom(r)

	var row store.CommentRow
	if !decodeBody(w, r, &row) {
		return
	}

	comment, err := h.eventService.AddComment(event.ID, userIDFrom(r), row)
	if err != nil {
		writeError(w, err, "create comment")
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *APIHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	comments, err := h.eventService.ListComments(eventFrom(r).ID)
	if err != nil {
		writeError(w, err, "list comments")
		return
	}
	if comments == nil {
		comments = []store.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// ImportCommentsHandler accepts a CSV file either as the comments_file field
// of a multipart form or as the raw request body.
func (h *APIHandler) ImportCommentsHandler(w http.ResponseWriter, r *http.Request) {
	event := eventFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("comments_file")
		if err != nil {
			http.Error(w, "comments_file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()
		src = file
	}

	count, err := h.eventService.ImportComments(event.ID, userIDFrom(r), src)
	if err != nil {
		writeError(w, err, "import comments")
		return
	}
	log.Debugf("Imported %d comments into event %d", count, event.ID)
	writeJSON(w, http.StatusCreated, map[string]int{"imported": count})
}

func (h *APIHandler) SummarizeEventHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.eventService.SummarizeEvent(r.Context(), eventFrom(r).ID)
	if err != nil {
		writeError(w, err, "summarize event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
