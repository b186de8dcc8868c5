package game

import (
	"context"
	"fmt"
	"strings"
)

// QuestionSource supplies prompts for a room's rounds.
type QuestionSource interface {
	Draw(ctx context.Context, count int, category string) ([]string, error)
}

type QuestionSourceFunc func(ctx context.Context, count int, category string) ([]string, error)

func (f QuestionSourceFunc) Draw(ctx context.Context, count int, category string) ([]string, error) {
	return f(ctx, count, category)
}

var reservePrompts = []string{
	"What is the worst possible name for a pet goldfish?",
	"Describe your ideal weekend in exactly five words.",
	"What would a cat write in its diary?",
	"Invent a holiday nobody asked for.",
	"What is the most useless superpower you can imagine?",
}

// padPrompts returns exactly count prompts. Blank entries are dropped, extra
// entries are cut, and missing ones come from a fixed reserve list.
func padPrompts(drawn []string, count int) []string {
	out := make([]string, 0, count)
	for _, prompt := range drawn {
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			continue
		}
		if len(out) == count {
			break
		}
		out = append(out, prompt)
	}
	for i := 0; len(out) < count; i++ {
		prompt := reservePrompts[i%len(reservePrompts)]
		if cycle := i / len(reservePrompts); cycle > 0 {
			prompt = fmt.Sprintf("%s (take %d)", prompt, cycle+1)
		}
		out = append(out, prompt)
	}
	return out
}
