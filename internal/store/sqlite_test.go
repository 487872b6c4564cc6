package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *SQLiteStore, name string) *User {
	t.Helper()
	u, err := s.CreateUser(name, "hash")
	require.NoError(t, err)
	return u
}

func TestCreateEvent_ProvisionsSession(t *testing.T) {
	s := newTestStore(t)
	owner := newTestUser(t, s, "alice")

	event, err := s.CreateEvent(owner.ID, "Exercise Blue", "2024-03-01", "2024-03-05")
	require.NoError(t, err)
	assert.NotEmpty(t, event.CollectionKey)
	assert.Equal(t, []int64{owner.ID}, event.InviteeIDs)
	assert.Nil(t, event.Summary)

	session, err := s.GetSession(event.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionConfig(), session.Config)
	assert.Empty(t, session.History)

	// Get-or-create must not create a second session or reset the first.
	session.Config.ResultCount = 9
	require.NoError(t, s.SaveSession(session))
	again, err := s.GetOrCreateSession(event.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, again.Config.ResultCount)
}

func TestCreateEvent_UniqueCollectionKeys(t *testing.T) {
	s := newTestStore(t)
	owner := newTestUser(t, s, "alice")

	a, err := s.CreateEvent(owner.ID, "A", "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	b, err := s.CreateEvent(owner.ID, "B", "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	assert.NotEqual(t, a.CollectionKey, b.CollectionKey)
}

func TestGetEvent_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEvent(42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetOrCreateSession(42, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.UpdateEventSummary(42, "x"), ErrNotFound)
}

func TestInviteesAndListing(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	event, err := s.CreateEvent(alice.ID, "Exercise Blue", "2024-03-01", "2024-03-05")
	require.NoError(t, err)

	events, err := s.ListEventsForUser(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, s.AddInvitee(event.ID, bob.ID))
	require.NoError(t, s.AddInvitee(event.ID, bob.ID)) // idempotent

	events, err = s.ListEventsForUser(bob.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].HasInvitee(bob.ID))
	assert.Len(t, events[0].InviteeIDs, 2)

	assert.ErrorIs(t, s.AddInvitee(event.ID, 999), ErrNotFound)
}

func TestComments(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	event, err := s.CreateEvent(alice.ID, "Exercise Blue", "2024-03-01", "2024-03-05")
	require.NoError(t, err)

	_, err = s.CreateComment(event.ID, alice.ID, CommentRow{Observation: "Radios failed"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateComment(999, alice.ID, CommentRow{Observation: "a", Recommendation: "b"})
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := s.CreateComment(event.ID, alice.ID, CommentRow{Observation: "Radios failed", Recommendation: "Bring spares"})
	require.NoError(t, err)

	n, err := s.CreateComments(event.ID, alice.ID, []CommentRow{
		{Observation: "Briefing was great", Discussion: "Clear slides", Recommendation: "Keep it"},
		{Observation: "", Recommendation: "skipped"},
		{Observation: "Food was late", Recommendation: "Order earlier"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	comments, err := s.ListComments(event.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, "Clear slides", comments[1].Discussion)
	assert.Equal(t, "Food was late", comments[2].Observation)
}

func TestSaveSession_RoundTripsHistory(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	event, err := s.CreateEvent(alice.ID, "Exercise Blue", "2024-03-01", "2024-03-05")
	require.NoError(t, err)

	session, err := s.GetOrCreateSession(event.ID, alice.ID)
	require.NoError(t, err)

	summary := "short"
	session.Prepend(QueryRecord{Query: "q1"})
	session.Prepend(QueryRecord{Query: "q2", Summary: &summary, Responses: []RankedResult{{Document: "d", Sentiment: "Neutral", Distance: "0.25"}}})
	session.Config.LastQuestion = "q2"
	require.NoError(t, s.SaveSession(session))

	loaded, err := s.GetSession(event.ID)
	require.NoError(t, err)
	require.Len(t, loaded.History, 2)
	assert.Equal(t, "q2", loaded.History[0].Query)
	assert.Equal(t, "q1", loaded.History[1].Query)
	assert.Equal(t, "short", *loaded.History[0].Summary)
	assert.Nil(t, loaded.History[1].Summary)
	assert.Equal(t, "0.25", loaded.History[0].Responses[0].Distance)
	assert.Equal(t, "q2", loaded.Config.LastQuestion)
}

func TestGetSession_FillsMissingConfigKeys(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	event, err := s.CreateEvent(alice.ID, "Exercise Blue", "2024-03-01", "2024-03-05")
	require.NoError(t, err)

	_, err = s.db.Exec("UPDATE sessions SET config_json = ? WHERE event_id = ?", `{"sentiment_filter":"Negative"}`, event.ID)
	require.NoError(t, err)

	session, err := s.GetSession(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Negative", session.Config.SentimentFilter)
	assert.Equal(t, DefaultResultCount, session.Config.ResultCount)
	assert.Equal(t, DefaultSensitivity, session.Config.Sensitivity)
	assert.False(t, session.Config.Summarize)
}

func TestImportCommentsFromFile(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	event, err := s.CreateEvent(alice.ID, "Exercise Blue", "2024-03-01", "2024-03-05")
	require.NoError(t, err)

	csvText := "\xEF\xBB\xBFobservation,discussion,recommendation,extra\n" +
		"Comms were slow,,Add relay,x\n" +
		",missing observation,Anything,y\n" +
		"\"Logistics, overall, good\",Some talk,Keep going,z\n"
	path := filepath.Join(t.TempDir(), "comments.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvText), 0o600))

	n, err := s.ImportCommentsFromFile(path, event.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	comments, err := s.ListComments(event.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Logistics, overall, good", comments[1].Observation)

	_, err = s.ImportCommentsFromFile(filepath.Join(t.TempDir(), "missing.csv"), event.ID, alice.ID)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing.csv"))
}
