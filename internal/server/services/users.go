package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/auth"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
)

// MinPasswordLength is counted in characters.
const MinPasswordLength = 8

// Session is what register and login hand back to the client.
type Session struct {
	User  *models.User
	Token string
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenIssuer
	log         logging.Logger
	now         Clock
}

func NewUserService(m repomanager.RepositoryManager, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer, log logging.Logger) *UserService {
	return &UserService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log.With("module", "users"),
		now:         SystemClock,
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	return nil
}

// Register creates an account and opens a session for it.
func (s *UserService) Register(ctx context.Context, email, password string, name *string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		Preferences:  models.Preferences{},
		CreatedAt:    s.now(),
	}

	user, err = s.repomanager.Users(s.repomanager.DB()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return s.openSession(user)
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	repo := s.repomanager.Users(s.repomanager.DB())

	user, err := repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.VerifyPassword(password, user.PasswordHash) {
		s.log.Info(ctx, "login rejected", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	at := s.now()
	if err := repo.TouchLastLogin(ctx, user.ID, at); err != nil {
		return nil, fmt.Errorf("error updating last login: %w", err)
	}
	user.LastLogin = &at

	return s.openSession(user)
}

func (s *UserService) openSession(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}
