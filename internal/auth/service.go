package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"voting-game/internal/game"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 100
	minPasswordLength = 6
)

type Service struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenManager
	validate *validator.Validate
	now      func() time.Time
}

func NewService(users UserStore, hasher PasswordHasher, tokens TokenManager) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Register(ctx context.Context, email, username, password string) (User, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return User{}, ErrInvalidEmail
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return User{}, ErrInvalidUsername
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return User{}, ErrWeakPassword
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	log.Info().Str("module", "auth").Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// reported the same way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return User{}, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) IssueToken(user User) (string, error) {
	return s.tokens.Generate(user.ID, s.now())
}

func (s *Service) Lookup(ctx context.Context, id string) (User, error) {
	return s.users.UserByID(ctx, id)
}

// Resolve maps a bearer credential to its user.
func (s *Service) Resolve(ctx context.Context, token string) (User, error) {
	if strings.TrimSpace(token) == "" {
		return User{}, ErrInvalidToken
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return User{}, ErrInvalidToken
	}
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}
	return user, nil
}

func (u User) Identity() game.Identity {
	return game.Identity{ID: u.ID, DisplayName: u.Username}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
