package core

import (
	"context"
	"fmt"
	"strings"

	"amc.com/dart-feedback/internal/store"
	log "github.com/sirupsen/logrus"
)

var validSentimentFilters = map[string]bool{
	store.SentimentFilterAll:  true,
	string(SentimentPositive): true,
	string(SentimentNegative): true,
	string(SentimentNeutral):  true,
}

// ChatService owns the per-event chat sessions: running queries into the
// history and changing the session configuration.
type ChatService struct {
	dbStore      SessionStore
	queryService *QueryService
	locks        *eventLocks
}

func NewChatService(db SessionStore, query *QueryService) *ChatService {
	return &ChatService{
		dbStore:      db,
		queryService: query,
		locks:        newEventLocks(),
	}
}

// GetSession returns the event's chat, creating it on first access.
func (s *ChatService) GetSession(eventID int64) (*store.Session, error) {
	event, err := s.dbStore.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	return s.dbStore.GetOrCreateSession(eventID, event.UserID)
}

// RunQuery answers the query with the session's current configuration,
// prepends the record to the history and remembers the question. Only a
// missing event or a failing store are returned as errors.
func (s *ChatService) RunQuery(ctx context.Context, eventID int64, query string) (*store.QueryRecord, error) {
	var rec store.QueryRecord
	err := s.updateSession(eventID, func(session *store.Session) error {
		rec = s.queryService.Answer(ctx, eventID, query, session.Config)
		session.Prepend(rec)
		session.Config.LastQuestion = query
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RerunLastQuery repeats the most recent question.
func (s *ChatService) RerunLastQuery(ctx context.Context, eventID int64) (*store.QueryRecord, error) {
	session, err := s.GetSession(eventID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.Config.LastQuestion) == "" {
		return nil, ErrNoLastQuestion
	}
	return s.RunQuery(ctx, eventID, session.Config.LastQuestion)
}

// ConfigUpdate carries the fields to change; nil fields are left alone.
type ConfigUpdate struct {
	SentimentFilter *string  `json:"sentiment_filter,omitempty"`
	ResultCount     *int     `json:"n_results_filter,omitempty"`
	Sensitivity     *float64 `json:"sensitivity,omitempty"`
	Summarize       *bool    `json:"summarize,omitempty"`
	Model           *string  `json:"model,omitempty"`
}

func (u ConfigUpdate) validate() error {
	if u.SentimentFilter != nil && !validSentimentFilters[*u.SentimentFilter] {
		return fmt.Errorf("%w: unknown sentiment filter %q", store.ErrValidation, *u.SentimentFilter)
	}
	if u.Sensitivity != nil && (*u.Sensitivity < 0 || *u.Sensitivity > 1) {
		return fmt.Errorf("%w: sensitivity must be between 0 and 1", store.ErrValidation)
	}
	return nil
}

func (s *ChatService) UpdateConfig(eventID int64, update ConfigUpdate) (*store.Session, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}
	return s.mutate(eventID, func(session *store.Session) {
		cfg := &session.Config
		if update.SentimentFilter != nil {
			cfg.SentimentFilter = *update.SentimentFilter
		}
		if update.ResultCount != nil {
			cfg.ResultCount = *update.ResultCount
		}
		if update.Sensitivity != nil {
			cfg.Sensitivity = *update.Sensitivity
		}
		if update.Summarize != nil {
			cfg.Summarize = *update.Summarize
		}
		if update.Model != nil {
			cfg.Model = strings.TrimSpace(*update.Model)
		}
	})
}

func (s *ChatService) ToggleSummarize(eventID int64) (*store.Session, error) {
	return s.mutate(eventID, func(session *store.Session) {
		session.Config.Summarize = !session.Config.Summarize
	})
}

// ClearHistory drops every query record but keeps the configuration.
func (s *ChatService) ClearHistory(eventID int64) (*store.Session, error) {
	return s.mutate(eventID, func(session *store.Session) {
		session.History = []store.QueryRecord{}
	})
}

func (s *ChatService) mutate(eventID int64, fn func(*store.Session)) (*store.Session, error) {
	var out *store.Session
	err := s.updateSession(eventID, func(session *store.Session) error {
		fn(session)
		out = session
		return nil
	})
	return out, err
}

// updateSession loads, modifies and saves the event's session while holding
// the event's lock.
func (s *ChatService) updateSession(eventID int64, fn func(*store.Session) error) error {
	event, err := s.dbStore.GetEvent(eventID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(eventID)
	defer unlock()

	session, err := s.dbStore.GetOrCreateSession(eventID, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to load session for event %d: %w", eventID, err)
	}
	if err := fn(session); err != nil {
		return err
	}
	if err := s.dbStore.SaveSession(session); err != nil {
		log.Errorf("Failed to save session for event %d: %v", eventID, err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
