package core

import (
	"context"
	"fmt"

	"amc.com/dart-feedback/internal/store"
)

type fakeStore struct {
	events   map[int64]*store.Event
	comments map[int64][]store.Comment
	sessions map[int64]*store.Session
	users    map[string]*store.User
	summary  map[int64]string

	listErr error
	saveErr error
	saves   int
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:   map[int64]*store.Event{},
		comments: map[int64][]store.Comment{},
		sessions: map[int64]*store.Session{},
		users:    map[string]*store.User{},
		summary:  map[int64]string{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// addEvent registers an event owned by user 1 with the given comment observations.
func (f *fakeStore) addEvent(observations ...string) int64 {
	event, _ := f.CreateEvent(1, "Exercise", "2024-01-01", "2024-01-02")
	for _, o := range observations {
		f.comments[event.ID] = append(f.comments[event.ID], store.Comment{ID: f.id(), EventID: event.ID, Observation: o})
	}
	return event.ID
}

func (f *fakeStore) GetEvent(eventID int64) (*store.Event, error) {
	e, ok := f.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, store.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) ListComments(eventID int64) ([]store.Comment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]store.Comment(nil), f.comments[eventID]...), nil
}

func (f *fakeStore) GetOrCreateSession(eventID, ownerID int64) (*store.Session, error) {
	if _, err := f.GetEvent(eventID); err != nil {
		return nil, err
	}
	s, ok := f.sessions[eventID]
	if !ok {
		s = &store.Session{EventID: eventID, UserID: ownerID, Config: store.DefaultSessionConfig(), History: []store.QueryRecord{}}
		f.sessions[eventID] = s
	}
	cp := *s
	cp.History = append([]store.QueryRecord(nil), s.History...)
	return &cp, nil
}

func (f *fakeStore) SaveSession(session *store.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *session
	cp.History = append([]store.QueryRecord(nil), session.History...)
	f.sessions[session.EventID] = &cp
	f.saves++
	return nil
}

func (f *fakeStore) CreateEvent(ownerID int64, name, startDate, endDate string) (*store.Event, error) {
	e := &store.Event{ID: f.id(), UserID: ownerID, Name: name, StartDate: startDate, EndDate: endDate, InviteeIDs: []int64{ownerID}, CollectionKey: fmt.Sprintf("key-%d", f.nextID)}
	f.events[e.ID] = e
	f.sessions[e.ID] = &store.Session{EventID: e.ID, UserID: ownerID, Config: store.DefaultSessionConfig(), History: []store.QueryRecord{}}
	return f.GetEvent(e.ID)
}

func (f *fakeStore) ListEventsForUser(userID int64) ([]store.Event, error) {
	var out []store.Event
	for _, e := range f.events {
		if e.HasInvitee(userID) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) AddInvitee(eventID, userID int64) error {
	e, ok := f.events[eventID]
	if !ok {
		return store.ErrNotFound
	}
	if !e.HasInvitee(userID) {
		e.InviteeIDs = append(e.InviteeIDs, userID)
	}
	return nil
}

func (f *fakeStore) UpdateEventSummary(eventID int64, summary string) error {
	e, ok := f.events[eventID]
	if !ok {
		return store.ErrNotFound
	}
	e.Summary = &summary
	f.summary[eventID] = summary
	return nil
}

func (f *fakeStore) CreateComment(eventID, userID int64, row store.CommentRow) (*store.Comment, error) {
	if err := row.Validate(); err != nil {
		return nil, err
	}
	if _, err := f.GetEvent(eventID); err != nil {
		return nil, err
	}
	c := store.Comment{ID: f.id(), EventID: eventID, UserID: userID, Observation: row.Observation, Discussion: row.Discussion, Recommendation: row.Recommendation}
	f.comments[eventID] = append(f.comments[eventID], c)
	return &c, nil
}

func (f *fakeStore) CreateComments(eventID, userID int64, rows []store.CommentRow) (int, error) {
	n := 0
	for _, r := range rows {
		if _, err := f.CreateComment(eventID, userID, r); err == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetUserByExternalID(externalUserID string) (*store.User, error) {
	return f.users[externalUserID], nil
}

func (f *fakeStore) CreateUser(externalUserID, passwordHash string) (*store.User, error) {
	u := &store.User{ID: f.id(), ExternalUserID: externalUserID, PasswordHash: passwordHash}
	f.users[externalUserID] = u
	return u, nil
}

type fakeGenerator struct {
	result    GenerationResult
	prompts   []string
	requested []string
	panics    bool
}

func (g *fakeGenerator) Available() bool      { return g.result.Status != GenerationUnavailable }
func (g *fakeGenerator) ListModels() []string { return []string{"llama3"} }
func (g *fakeGenerator) Close()               {}

func (g *fakeGenerator) Generate(ctx context.Context, model, prompt string) GenerationResult {
	if g.panics {
		panic("generator exploded")
	}
	g.prompts = append(g.prompts, prompt)
	g.requested = append(g.requested, model)
	return g.result
}
