package prompts

import (
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"voting-game/internal/config"
	"voting-game/internal/game"
)

const redisCacheTTL = 24 * time.Hour

// FromConfig builds the question source chain for QUESTION_SOURCE. The
// library source needs a database and silently degrades to the static corpus
// without one. A redis client, when present, caches the generated prompts.
func FromConfig(cfg config.Config, conn *gorm.DB, rdb *redis.Client) game.QuestionSource {
	static := NewStatic()
	var primary game.QuestionSource = static
	switch strings.ToLower(cfg.QuestionSource) {
	case config.QuestionSourceLibrary:
		if conn != nil {
			primary = NewLibrary(conn)
		}
	case config.QuestionSourceOpenAI:
		primary = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	if rdb != nil {
		primary = NewRedisCorpus(rdb, primary, redisCacheTTL)
	}
	return NewPadded(primary, static, cfg.QuestionTimeout())
}
