package prompts

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"voting-game/internal/game"
)

// Padded bounds a source with a timeout and tops its result up from a
// fallback source. Failures of the primary source are logged and masked.
type Padded struct {
	primary  game.QuestionSource
	fallback game.QuestionSource
	timeout  time.Duration
}

func NewPadded(primary, fallback game.QuestionSource, timeout time.Duration) *Padded {
	return &Padded{primary: primary, fallback: fallback, timeout: timeout}
}

func (p *Padded) Draw(ctx context.Context, count int, category string) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	drawn := p.draw(ctx, p.primary, count, category)
	drawn = dedupe(drawn, count)
	if len(drawn) < count && p.fallback != nil {
		extra := p.draw(ctx, p.fallback, count, category)
		drawn = dedupe(append(drawn, extra...), count)
	}
	return drawn, nil
}

func (p *Padded) draw(ctx context.Context, source game.QuestionSource, count int, category string) []string {
	if source == nil {
		return nil
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	drawn, err := source.Draw(ctx, count, category)
	if err != nil {
		log.Warn().Err(err).Str("module", "prompts").Str("category", category).Msg("question source failed")
		return nil
	}
	return drawn
}

// dedupe trims prompts, drops blanks and case-insensitive duplicates, and
// keeps at most limit entries when limit is positive.
func dedupe(prompts []string, limit int) []string {
	cleaned := lo.FilterMap(prompts, func(prompt string, _ int) (string, bool) {
		prompt = strings.TrimSpace(prompt)
		return prompt, prompt != ""
	})
	unique := lo.UniqBy(cleaned, strings.ToLower)
	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}
