package db

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPromptCategory = "general"

// PromptLibrary is one stored question. Rows are never edited, only added.
type PromptLibrary struct {
	ID        uint      `gorm:"primaryKey"`
	Category  string    `gorm:"size:64;not null;default:general;uniqueIndex:idx_prompt_library_category_text"`
	Text      string    `gorm:"size:280;not null;uniqueIndex:idx_prompt_library_category_text"`
	CreatedAt time.Time `gorm:"not null"`
}

// LoadPromptLibrary reads a category,text CSV with a header row and inserts
// the prompts that are not yet present. It returns how many rows were new.
func LoadPromptLibrary(ctx context.Context, conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, errors.New("db connection is nil")
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	entries, err := readPrompts(file)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	result := conn.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(entries, 200)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func readPrompts(r io.Reader) ([]PromptLibrary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var entries []PromptLibrary
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		category, text := defaultPromptCategory, ""
		if len(row) >= 2 {
			category = strings.ToLower(strings.TrimSpace(row[0]))
			text = strings.TrimSpace(row[1])
		} else {
			text = strings.TrimSpace(row[0])
		}
		if category == "" {
			category = defaultPromptCategory
		}
		if text == "" {
			continue
		}
		entries = append(entries, PromptLibrary{Category: category, Text: text})
	}
	return entries, nil
}
