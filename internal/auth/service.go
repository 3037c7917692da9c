package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finwell/finwell/internal/model"
	"github.com/finwell/finwell/internal/store"
)

var (
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials indicates a failed login. Deliberately not
	// distinguishing unknown user from wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrMissingUsername indicates a blank username at registration.
	ErrMissingUsername = errors.New("username is required")
	// ErrWeakPassword indicates a too-short password at registration.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLen)
)

// Minimum password length accepted at registration.
const MinPasswordLen = 8

// Service registers accounts and verifies logins against the record
// store. Accounts are optional: anonymous sessions work without one,
// an account just makes data portable across devices.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService creates the account service.
func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger.With("component", "auth"),
	}
}

// Register creates a new account owned by the given session.
func (s *Service) Register(ctx context.Context, sessionID, username, email, password, lang string) (*model.Record, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, ErrMissingUsername
	}
	if len(password) < MinPasswordLen {
		return nil, ErrWeakPassword
	}

	if _, err := s.findUser(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrInvalidCredentials) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Lang:         lang,
	}
	rec := model.NewRecord(sessionID, user, email, lang)
	if err := s.store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append user: %w", err)
	}

	s.logger.Info("account registered", "username", username)
	return rec, nil
}

// Login verifies credentials and returns the account record.
func (s *Service) Login(ctx context.Context, username, password string) (*model.Record, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	rec, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	user := rec.Payload.(*model.User)

	match, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable", "username", username, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return rec, nil
}

func (s *Service) findUser(ctx context.Context, username string) (*model.Record, error) {
	records, err := s.store.FilterByKind(ctx, model.KindUser)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	for _, rec := range records {
		if user, ok := rec.Payload.(*model.User); ok && user.Username == username {
			return rec, nil
		}
	}
	return nil, ErrInvalidCredentials
}
