package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"voting-game/internal/auth"
)

// UserStore persists accounts in the users table.
type UserStore struct {
	conn *gorm.DB
}

func NewUserStore(conn *gorm.DB) *UserStore {
	return &UserStore{conn: conn}
}

func (s *UserStore) CreateUser(ctx context.Context, user auth.User) (auth.User, error) {
	record := User{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if err := s.conn.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return auth.User{}, auth.ErrEmailTaken
		}
		return auth.User{}, fmt.Errorf("insert user: %w", err)
	}
	return toAuthUser(record), nil
}

func (s *UserStore) UserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) UserByID(ctx context.Context, id string) (auth.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) first(ctx context.Context, query string, arg any) (auth.User, error) {
	var record User
	err := s.conn.WithContext(ctx).Where(query, arg).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, err
	}
	return toAuthUser(record), nil
}

func toAuthUser(record User) auth.User {
	return auth.User{
		ID:           record.ID,
		Email:        record.Email,
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
