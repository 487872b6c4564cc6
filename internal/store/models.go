package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	PasswordHash   string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt      time.Time `json:"created_at"`
}

type Event struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"` // Owner
	Name          string    `json:"name"`
	StartDate     string    `json:"start_date"` // YYYY-MM-DD
	EndDate       string    `json:"end_date"`
	InviteeIDs    []int64   `json:"invitee_ids"`
	Summary       *string   `json:"summary"` // Nullable
	CollectionKey string    `json:"collection_key"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasInvitee reports whether the user was invited to the event. Owners are
// always invitees.
func (e *Event) HasInvitee(userID int64) bool {
	for _, id := range e.InviteeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Comment struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	EventID        int64     `json:"event_id"`
	Observation    string    `json:"observation"`
	Discussion     string    `json:"discussion"` // Optional
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CommentRow is the user-supplied part of a comment, as submitted through a
// form or a CSV row.
type CommentRow struct {
	Observation    string `json:"observation"`
	Discussion     string `json:"discussion"`
	Recommendation string `json:"recommendation"`
}

const (
	SentimentFilterAll = "All"

	DefaultResultCount = 4
	DefaultSensitivity = 0.8
)

// SessionConfig is the per-event chat configuration. It is persisted as a
// JSON object; keys missing from the stored object keep their defaults.
type SessionConfig struct {
	SentimentFilter string  `json:"sentiment_filter"`
	ResultCount     int     `json:"n_results_filter"`
	Sensitivity     float64 `json:"sensitivity"`
	Summarize       bool    `json:"summarize"`
	Model           string  `json:"model,omitempty"`
	LastQuestion    string  `json:"last_question,omitempty"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		SentimentFilter: SentimentFilterAll,
		ResultCount:     DefaultResultCount,
		Sensitivity:     DefaultSensitivity,
	}
}

// DecodeSessionConfig decodes a stored config blob on top of the defaults.
// An empty or null blob yields the defaults.
func DecodeSessionConfig(raw []byte) (SessionConfig, error) {
	cfg := DefaultSessionConfig()
	if len(raw) == 0 || string(raw) == "null" {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return DefaultSessionConfig(), err
	}
	return cfg, nil
}

type RankedResult struct {
	Document  string `json:"document"`
	Sentiment string `json:"sentiment"`
	Distance  string `json:"distance"` // 1 - score, two decimals, or "N/A"
}

type QueryRecord struct {
	Query     string         `json:"query"`
	Responses []RankedResult `json:"responses"`
	Summary   *string        `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

// Session is the chat attached to an event. History is ordered most recent first.
type Session struct {
	EventID   int64         `json:"event_id"`
	UserID    int64         `json:"user_id"`
	Config    SessionConfig `json:"config"`
	History   []QueryRecord `json:"queries"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Prepend adds a record to the front of the history.
func (s *Session) Prepend(rec QueryRecord) {
	s.History = append([]QueryRecord{rec}, s.History...)
}
