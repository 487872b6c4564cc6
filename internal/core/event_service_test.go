package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"amc.com/dart-feedback/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeEvent_NoComments(t *testing.T) {
	db := newFakeStore()
	eventID := db.addEvent()
	svc := NewEventService(db, &fakeGenerator{result: generationOK("unused")}, "llama3")

	summary, err := svc.SummarizeEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, "Not enough content to summarize.", summary)
	assert.Equal(t, summary, db.summary[eventID])
}

func TestSummarizeEvent_UsesBackend(t *testing.T) {
	db := newFakeStore()
	eventID := db.addEvent("Radios failed", "Spares helped")
	gen := &fakeGenerator{result: generationOK("Radio issues dominated.")}
	svc := NewEventService(db, gen, "llama3")

	summary, err := svc.SummarizeEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, "Radio issues dominated.", summary)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "Please provide a concise, professional summary of the following comments:\n\nRadios failed Spares helped", gen.prompts[0])
	assert.Equal(t, []string{"llama3"}, gen.requested)
}

func TestSummarizeEvent_FallbackAndTruncation(t *testing.T) {
	db := newFakeStore()
	long := strings.Repeat("word ", 4000) // 20000 runes, no sentence boundary
	eventID := db.addEvent(long)
	gen := &fakeGenerator{result: GenerationResult{Status: GenerationModelNotFound}}
	svc := NewEventService(db, gen, "llama3")

	summary, err := svc.SummarizeEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(long[:15000]), summary)

	prefix := "Please provide a concise, professional summary of the following comments:\n\n"
	assert.Equal(t, len(prefix)+15000, len(gen.prompts[0]))
}

func TestSummarizeEvent_PanicFallsBackToExtractive(t *testing.T) {
	db := newFakeStore()
	eventID := db.addEvent("One. Two. Three. Four.")
	svc := NewEventService(db, &fakeGenerator{panics: true}, "llama3")

	summary, err := svc.SummarizeEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, "One. Two. Three.", summary)
}

func TestSummarizeEvent_CommentLoadFailure(t *testing.T) {
	db := newFakeStore()
	eventID := db.addEvent("Radios failed")
	db.listErr = errors.New("db locked")
	gen := &fakeGenerator{result: generationOK("unused")}
	svc := NewEventService(db, gen, "llama3")

	summary, err := svc.SummarizeEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, "An error occurred during summarization.", summary)
	assert.Equal(t, summary, db.summary[eventID])
	assert.Empty(t, gen.prompts)
}

func TestSummarizeEvent_NotFound(t *testing.T) {
	svc := NewEventService(newFakeStore(), nil, "llama3")
	_, err := svc.SummarizeEvent(context.Background(), 7)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateEvent_Validation(t *testing.T) {
	db := newFakeStore()
	svc := NewEventService(db, nil, "llama3")

	_, err := svc.CreateEvent(1, " ", "2024-01-01", "2024-01-02")
	assert.ErrorIs(t, err, store.ErrValidation)
	_, err = svc.CreateEvent(1, "Drill", "01/01/2024", "2024-01-02")
	assert.ErrorIs(t, err, store.ErrValidation)
	_, err = svc.CreateEvent(1, "Drill", "2024-01-05", "2024-01-02")
	assert.ErrorIs(t, err, store.ErrValidation)

	event, err := svc.CreateEvent(1, " Drill ", "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "Drill", event.Name)

	session, err := db.GetOrCreateSession(event.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultSessionConfig(), session.Config)
}

func TestAuthorizeAndInvite(t *testing.T) {
	db := newFakeStore()
	svc := NewEventService(db, nil, "llama3")
	event, err := svc.CreateEvent(1, "Drill", "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	bob, _ := db.CreateUser("bob", "hash")

	_, err = svc.Authorize(event.ID, bob.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, svc.InviteUser(event.ID, "nobody"), store.ErrNotFound)
	require.NoError(t, svc.InviteUser(event.ID, "bob"))

	got, err := svc.Authorize(event.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = svc.Authorize(999, bob.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportComments(t *testing.T) {
	db := newFakeStore()
	eventID := db.addEvent()
	svc := NewEventService(db, nil, "llama3")

	csvText := "observation,discussion,recommendation\n" +
		"Comms slow,,Add relay\n" +
		"No recommendation,,\n"
	n, err := svc.ImportComments(eventID, 1, strings.NewReader(csvText))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cs, err := svc.ListComments(eventID)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Comms slow", cs[0].Observation)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "éé", truncateRunes("ééé", 2))
}
