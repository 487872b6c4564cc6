package core

import (
	"errors"

	"amc.com/dart-feedback/internal/store"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrUserExists     = errors.New("user already exists")
	ErrNoLastQuestion = errors.New("no previous question to repeat")
)

// CommentSource is the read side the query engine needs.
type CommentSource interface {
	GetEvent(eventID int64) (*store.Event, error)
	ListComments(eventID int64) ([]store.Comment, error)
}

type SessionStore interface {
	CommentSource
	GetOrCreateSession(eventID, defaultOwnerID int64) (*store.Session, error)
	SaveSession(session *store.Session) error
}

type EventStore interface {
	CommentSource
	CreateEvent(ownerID int64, name, startDate, endDate string) (*store.Event, error)
	ListEventsForUser(userID int64) ([]store.Event, error)
	AddInvitee(eventID, userID int64) error
	UpdateEventSummary(eventID int64, summary string) error
	CreateComment(eventID, userID int64, row store.CommentRow) (*store.Comment, error)
	CreateComments(eventID, userID int64, rows []store.CommentRow) (int, error)
	GetUserByExternalID(externalUserID string) (*store.User, error)
}

type UserStore interface {
	GetUserByExternalID(externalUserID string) (*store.User, error)
	CreateUser(externalUserID, passwordHash string) (*store.User, error)
}
