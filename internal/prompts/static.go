package prompts

import (
	"context"
	"strings"

	"github.com/samber/lo"
)

var builtinPrompts = map[string][]string{
	"general": {
		"What is the worst thing to say on a first date?",
		"Invent a new flavor of ice cream that nobody would buy.",
		"What would a dog complain about at a job interview?",
		"Name a terrible theme for a wedding.",
		"What is the most suspicious thing to find in a library book?",
		"Write the slogan for a gym run by sloths.",
		"What should never be said by an airline pilot?",
		"Describe Monday morning as a weather forecast.",
		"Invent an Olympic sport for people who hate exercise.",
		"What is a pigeon's biggest secret?",
		"Name a self-help book written by a houseplant.",
		"What would aliens misunderstand first about humans?",
		"Give a terrible reason to call in sick.",
		"What is inside the world's most disappointing treasure chest?",
		"Pitch a reality show set in a laundromat.",
		"What is the worst password hint ever written?",
		"Describe your fridge as a movie trailer.",
		"What is a wizard's most boring spell?",
		"Invent a holiday celebrated only by cats.",
		"Write the first line of a breakup text from a robot vacuum.",
	},
	"work": {
		"What is the real reason the meeting could have been an email?",
		"Invent a job title that sounds important but means nothing.",
		"What is the worst thing to put on a resume?",
		"Name a team-building exercise nobody survives.",
		"What does the office printer dream about?",
	},
}

// Static draws from a built-in corpus. Unknown categories fall back to the
// general list.
type Static struct {
	corpus map[string][]string
}

func NewStatic() *Static {
	return &Static{corpus: builtinPrompts}
}

func NewStaticCorpus(corpus map[string][]string) *Static {
	return &Static{corpus: corpus}
}

// Draw returns up to count distinct prompts in random order.
func (s *Static) Draw(ctx context.Context, count int, category string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}
	return lo.Samples(s.pool(category), count), nil
}

func (s *Static) pool(category string) []string {
	if list, ok := s.corpus[strings.ToLower(strings.TrimSpace(category))]; ok && len(list) > 0 {
		return list
	}
	return s.corpus["general"]
}
