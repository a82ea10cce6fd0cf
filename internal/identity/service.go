package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"finsight/internal/log"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service is the identity gate: register, login, verify.
type Service struct {
	users  *UserStore
	tokens *TokenManager
	logger *log.Logger
}

// NewService wires the user store and token manager together.
func NewService(users *UserStore, tokens *TokenManager, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentIdentity),
	}
}

// Tokens exposes the token manager for cookie lifetime decisions.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Register creates an account and returns a session token for it.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return "", ErrWeakPassword
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return "", fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		// A concurrent register can still hit the unique constraint.
		if strings.Contains(err.Error(), "UNIQUE") {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", log.FieldUserID, user.ID)
	return s.tokens.Issue(user.ID)
}

// Login verifies credentials and returns a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "user logged in", log.FieldUserID, user.ID)
	return s.tokens.Issue(user.ID)
}

// Verify resolves a session token to a user ID.
func (s *Service) Verify(tokenString string) (int64, error) {
	return s.tokens.Verify(tokenString)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t\n")
}
