package server

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"voting-game/internal/game"
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("answer", func(fl validator.FieldLevel) bool {
			return validAnswer(fl.Field().String())
		})
		_ = engine.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
			return game.ValidCode(game.NormalizeCode(fl.Field().String()))
		})
		_ = engine.RegisterValidation("phase", func(fl validator.FieldLevel) bool {
			return game.RoundPhase(strings.ToLower(fl.Field().String())).Valid()
		})
	})
}

func validAnswer(content string) bool {
	trimmed := strings.TrimSpace(content)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= game.MaxAnswerLength
}
