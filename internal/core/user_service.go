package core

import (
	"fmt"
	"strings"

	"amc.com/dart-feedback/internal/auth"
	"amc.com/dart-feedback/internal/store"
)

type UserService struct {
	dbStore UserStore
}

func NewUserService(db UserStore) *UserService {
	return &UserService{dbStore: db}
}

func (s *UserService) GetUserByExternalID(externalUserID string) (*store.User, error) {
	return s.dbStore.GetUserByExternalID(externalUserID)
}

func (s *UserService) Signup(externalUserID, password string) (*store.User, error) {
	externalUserID = strings.TrimSpace(externalUserID)
	if externalUserID == "" || password == "" {
		return nil, fmt.Errorf("%w: user id and password are required", store.ErrValidation)
	}

	existing, err := s.dbStore.GetUserByExternalID(externalUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.dbStore.CreateUser(externalUserID, hashedPassword)
}

// Authenticate returns the user when the password matches, or nil.
func (s *UserService) Authenticate(externalUserID, password string) (*store.User, error) {
	user, err := s.dbStore.GetUserByExternalID(externalUserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil
	}
	return user, nil
}
