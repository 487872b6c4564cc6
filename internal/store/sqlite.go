package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	log "github.com/sirupsen/logrus"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writes and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    PRAGMA foreign_keys = ON;

    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_user_id TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        name TEXT NOT NULL,
        start_date TEXT NOT NULL,
        end_date TEXT NOT NULL,
        summary TEXT,
        collection_key TEXT UNIQUE NOT NULL, -- UUID
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS event_invitees (
        event_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        PRIMARY KEY (event_id, user_id),
        FOREIGN KEY (event_id) REFERENCES events (id),
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS comments (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        event_id INTEGER NOT NULL,
        observation TEXT NOT NULL,
        discussion TEXT NOT NULL DEFAULT '',
        recommendation TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id),
        FOREIGN KEY (event_id) REFERENCES events (id)
    );

    CREATE INDEX IF NOT EXISTS idx_comments_event_id ON comments (event_id);

    CREATE TABLE IF NOT EXISTS sessions (
        event_id INTEGER PRIMARY KEY, -- one chat per event
        user_id INTEGER NOT NULL,
        config_json TEXT NOT NULL DEFAULT '{}',
        history_json TEXT NOT NULL DEFAULT '[]',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (event_id) REFERENCES events (id),
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) GetUserByExternalID(externalUserID string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE external_user_id = ?", externalUserID).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(externalUserID, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (external_user_id, password_hash, created_at) VALUES (?, ?, ?)", externalUserID, passwordHash, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(id)
}

func (s *SQLiteStore) GetUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE id = ?", id).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Event methods

// CreateEvent inserts the event, makes the owner its first invitee and
// provisions the event's chat session, all in one transaction.
func (s *SQLiteStore) CreateEvent(ownerID int64, name, startDate, endDate string) (*Event, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin event transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.Exec("INSERT INTO events (user_id, name, start_date, end_date, collection_key, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ownerID, name, startDate, endDate, uuid.NewString(), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute event insert: %w", err)
	}
	eventID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read event id: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO event_invitees (event_id, user_id) VALUES (?, ?)", eventID, ownerID); err != nil {
		return nil, fmt.Errorf("failed to add owner as invitee: %w", err)
	}

	configJSON, err := json.Marshal(DefaultSessionConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session config: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO sessions (event_id, user_id, config_json, history_json, created_at, updated_at) VALUES (?, ?, ?, '[]', ?, ?)",
		eventID, ownerID, string(configJSON), now, now); err != nil {
		return nil, fmt.Errorf("failed to create session for event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit event: %w", err)
	}
	return s.GetEvent(eventID)
}

func (s *SQLiteStore) GetEvent(eventID int64) (*Event, error) {
	var event Event
	var summary sql.NullString
	err := s.db.QueryRow("SELECT id, user_id, name, start_date, end_date, summary, collection_key, created_at, updated_at FROM events WHERE id = ?", eventID).
		Scan(&event.ID, &event.UserID, &event.Name, &event.StartDate, &event.EndDate, &summary, &event.CollectionKey, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if summary.Valid {
		event.Summary = &summary.String
	}

	event.InviteeIDs, err = s.getInviteeIDs(eventID)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *SQLiteStore) getInviteeIDs(eventID int64) ([]int64, error) {
	rows, err := s.db.Query("SELECT user_id FROM event_invitees WHERE event_id = ? ORDER BY user_id", eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitees: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan invitee row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListEventsForUser returns the events the user is invited to, most recently updated first.
func (s *SQLiteStore) ListEventsForUser(userID int64) ([]Event, error) {
	rows, err := s.db.Query(`
        SELECT e.id
        FROM events e
        JOIN event_invitees i ON i.event_id = e.id
        WHERE i.user_id = ?
        ORDER BY e.updated_at DESC, e.id DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	// Rows must be closed before issuing follow-up queries on the single connection.
	events := make([]Event, 0, len(ids))
	for _, id := range ids {
		event, err := s.GetEvent(id)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, nil
}

func (s *SQLiteStore) AddInvitee(eventID, userID int64) error {
	if _, err := s.GetEvent(eventID); err != nil {
		return err
	}
	if _, err := s.GetUserByID(userID); err != nil {
		return err
	}
	if _, err := s.db.Exec("INSERT OR IGNORE INTO event_invitees (event_id, user_id) VALUES (?, ?)", eventID, userID); err != nil {
		return fmt.Errorf("failed to add invitee: %w", err)
	}
	return s.touchEvent(eventID)
}

func (s *SQLiteStore) UpdateEventSummary(eventID int64, summary string) error {
	res, err := s.db.Exec("UPDATE events SET summary = ?, updated_at = ? WHERE id = ?", summary, time.Now(), eventID)
	if err != nil {
		return fmt.Errorf("failed to execute event summary update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) touchEvent(eventID int64) error {
	if _, err := s.db.Exec("UPDATE events SET updated_at = ? WHERE id = ?", time.Now(), eventID); err != nil {
		return fmt.Errorf("failed to touch event: %w", err)
	}
	return nil
}

// Comment methods
func (s *SQLiteStore) CreateComment(eventID, userID int64, row CommentRow) (*Comment, error) {
	if err := row.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetEvent(eventID); err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := s.db.Exec("INSERT INTO comments (user_id, event_id, observation, discussion, recommendation, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		userID, eventID, row.Observation, row.Discussion, row.Recommendation, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute comment insert: %w", err)
	}
	id, _ := res.LastInsertId()
	if err := s.touchEvent(eventID); err != nil {
		log.Warnf("Comment %d stored but event %d was not touched: %v", id, eventID, err)
	}

	return &Comment{
		ID:             id,
		UserID:         userID,
		EventID:        eventID,
		Observation:    row.Observation,
		Discussion:     row.Discussion,
		Recommendation: row.Recommendation,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CreateComments stores every valid row in one transaction and returns how
// many were stored. Rows failing validation are skipped, not errored.
func (s *SQLiteStore) CreateComments(eventID, userID int64, rows []CommentRow) (int, error) {
	if _, err := s.GetEvent(eventID); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin comment import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO comments (user_id, event_id, observation, discussion, recommendation, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare comment insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	count := 0
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			log.Printf("Skipping comment row %d for event %d: %v", i+1, eventID, err)
			continue
		}
		if _, err := stmt.Exec(userID, eventID, row.Observation, row.Discussion, row.Recommendation, now, now); err != nil {
			return 0, fmt.Errorf("failed to insert comment row %d: %w", i+1, err)
		}
		count++
	}

	if _, err := tx.Exec("UPDATE events SET updated_at = ? WHERE id = ?", now, eventID); err != nil {
		return 0, fmt.Errorf("failed to touch event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit comment import: %w", err)
	}
	return count, nil
}

// ListComments returns the event's comments in submission order.
func (s *SQLiteStore) ListComments(eventID int64) ([]Comment, error) {
	rows, err := s.db.Query("SELECT id, user_id, event_id, observation, discussion, recommendation, created_at, updated_at FROM comments WHERE event_id = ? ORDER BY id ASC", eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.EventID, &c.Observation, &c.Discussion, &c.Recommendation, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Session methods

// GetOrCreateSession returns the event's chat, creating it with default
// configuration if the event has none yet.
func (s *SQLiteStore) GetOrCreateSession(eventID, defaultOwnerID int64) (*Session, error) {
	if _, err := s.GetEvent(eventID); err != nil {
		return nil, err
	}

	configJSON, err := json.Marshal(DefaultSessionConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session config: %w", err)
	}
	now := time.Now()
	_, err = s.db.Exec("INSERT OR IGNORE INTO sessions (event_id, user_id, config_json, history_json, created_at, updated_at) VALUES (?, ?, ?, '[]', ?, ?)",
		eventID, defaultOwnerID, string(configJSON), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s.GetSession(eventID)
}

func (s *SQLiteStore) GetSession(eventID int64) (*Session, error) {
	var session Session
	var configJSON, historyJSON string
	err := s.db.QueryRow("SELECT event_id, user_id, config_json, history_json, created_at, updated_at FROM sessions WHERE event_id = ?", eventID).
		Scan(&session.EventID, &session.UserID, &configJSON, &historyJSON, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session for event %d: %w", eventID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.Config, err = DecodeSessionConfig([]byte(configJSON))
	if err != nil {
		log.Warnf("Corrupt config for session %d, using defaults: %v", eventID, err)
	}

	session.History = []QueryRecord{}
	if strings.TrimSpace(historyJSON) != "" {
		if err := json.Unmarshal([]byte(historyJSON), &session.History); err != nil {
			log.Warnf("Corrupt history for session %d, starting empty: %v", eventID, err)
			session.History = []QueryRecord{}
		}
	}
	return &session, nil
}

func (s *SQLiteStore) SaveSession(session *Session) error {
	if session == nil {
		return errors.New("nil session")
	}
	configJSON, err := json.Marshal(session.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal session config: %w", err)
	}
	history := session.History
	if history == nil {
		history = []QueryRecord{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal session history: %w", err)
	}

	session.UpdatedAt = time.Now()
	res, err := s.db.Exec("UPDATE sessions SET config_json = ?, history_json = ?, updated_at = ? WHERE event_id = ?",
		string(configJSON), string(historyJSON), session.UpdatedAt, session.EventID)
	if err != nil {
		return fmt.Errorf("failed to execute session update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("session for event %d: %w", session.EventID, ErrNotFound)
	}
	return nil
}
