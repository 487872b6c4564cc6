package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"amc.com/dart-feedback/internal/store"
	log "github.com/sirupsen/logrus"
)

const (
	dateLayout = "2006-01-02"

	maxSummaryInputRunes = 15000

	notEnoughContentText = "Not enough content to summarize."
	summaryErrorText     = "An error occurred during summarization."
)

type EventService struct {
	dbStore      EventStore
	llm          Generator
	defaultModel string
}

func NewEventService(db EventStore, llm Generator, defaultModel string) *EventService {
	if llm == nil {
		llm = NoopBackend{}
	}
	return &EventService{
		dbStore:      db,
		llm:          llm,
		defaultModel: defaultModel,
	}
}

// CreateEvent stores a new event owned by ownerID together with its chat
// session. Dates are YYYY-MM-DD and the end may not precede the start.
func (s *EventService) CreateEvent(ownerID int64, name, startDate, endDate string) (*store.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: event name is required", store.ErrValidation)
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(startDate))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date %q", store.ErrValidation, startDate)
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(endDate))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date %q", store.ErrValidation, endDate)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date is before start date", store.ErrValidation)
	}

	event, err := s.dbStore.CreateEvent(ownerID, name, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to create event in DB: %w", err)
	}
	log.Printf("Created event %d (%s) for user %d", event.ID, event.CollectionKey, ownerID)
	return event, nil
}

// Authorize returns the event if the user is one of its invitees.
func (s *EventService) Authorize(eventID, userID int64) (*store.Event, error) {
	event, err := s.dbStore.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if !event.HasInvitee(userID) {
		return nil, ErrForbidden
	}
	return event, nil
}

func (s *EventService) ListEvents(userID int64) ([]store.Event, error) {
	return s.dbStore.ListEventsForUser(userID)
}

func (s *EventService) InviteUser(eventID int64, externalUserID string) error {
	user, err := s.dbStore.GetUserByExternalID(externalUserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q: %w", externalUserID, store.ErrNotFound)
	}
	return s.dbStore.AddInvitee(eventID, user.ID)
}

func (s *EventService) AddComment(eventID, userID int64, row store.CommentRow) (*store.Comment, error) {
	return s.dbStore.CreateComment(eventID, userID, row)
}

func (s *EventService) ListComments(eventID int64) ([]store.Comment, error) {
	return s.dbStore.ListComments(eventID)
}

// ImportComments reads CSV comment rows and stores the valid ones as
// comments by userID. It returns the number stored.
func (s *EventService) ImportComments(eventID, userID int64, r io.Reader) (int, error) {
	rows, err := store.ParseCommentCSV(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrValidation, err)
	}
	count, err := s.dbStore.CreateComments(eventID, userID, rows)
	if err != nil {
		return 0, err
	}
	log.Printf("Uploaded %d of %d comment rows for event %d.", count, len(rows), eventID)
	return count, nil
}

// SummarizeEvent summarizes every comment on the event and stores the result
// as the event summary. Only a missing event or a failed summary update are
// returned as errors; anything else yields the generic error summary.
func (s *EventService) SummarizeEvent(ctx context.Context, eventID int64) (string, error) {
	if _, err := s.dbStore.GetEvent(eventID); err != nil {
		return "", err
	}
	var summary string
	comments, err := s.dbStore.ListComments(eventID)
	if err != nil {
		log.Errorf("Error loading comments to summarize event %d: %v", eventID, err)
		summary = summaryErrorText
	} else {
		summary = s.summarize(ctx, eventID, comments)
	}

	if err := s.dbStore.UpdateEventSummary(eventID, summary); err != nil {
		return "", err
	}
	return summary, nil
}

func (s *EventService) summarize(ctx context.Context, eventID int64, comments []store.Comment) (summary string) {
	if len(comments) == 0 {
		return notEnoughContentText
	}

	docs := make([]string, 0, len(comments))
	for _, c := range comments {
		docs = append(docs, documentText(c))
	}
	text := truncateRunes(strings.Join(docs, " "), maxSummaryInputRunes)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Error summarizing texts for event %d: %v", eventID, r)
			summary = safeExtractiveSummary(text)
		}
	}()

	prompt := "Please provide a concise, professional summary of the following comments:\n\n" + text
	return generateOrFallback(ctx, s.llm, s.defaultModel, prompt, text)
}

func safeExtractiveSummary(text string) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			summary = summaryErrorText
		}
	}()
	return ExtractiveSummary(text)
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
