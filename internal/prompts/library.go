package prompts

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"voting-game/internal/db"
)

// Library draws prompts from the prompt_library table loaded by
// cmd/load-prompts.
type Library struct {
	conn *gorm.DB
}

func NewLibrary(conn *gorm.DB) *Library {
	return &Library{conn: conn}
}

func (l *Library) Draw(ctx context.Context, count int, category string) ([]string, error) {
	if l.conn == nil {
		return nil, errors.New("prompt library has no database connection")
	}
	if count <= 0 {
		return nil, nil
	}
	query := l.conn.WithContext(ctx).Model(&db.PromptLibrary{})
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("category = ?", strings.ToLower(category))
	}
	var texts []string
	if err := query.Order("random()").Limit(count).Pluck("text", &texts).Error; err != nil {
		return nil, err
	}
	return texts, nil
}
