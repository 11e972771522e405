package server

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"psykos/internal/game"
)

const maxCodeLength = 8

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			return validName(fl.Field().String())
		})
		_ = engine.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			_, ok := game.ParseCategory(fl.Field().String())
			return ok
		})
		_ = engine.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
			return validCode(fl.Field().String())
		})
	})
}

func validName(name string) bool {
	trimmed := normalizeText(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > game.MaxNameLength {
		return false
	}
	return isSafeText(trimmed)
}

func validCode(code string) bool {
	code = game.NormalizeCode(code)
	if code == "" || len(code) > maxCodeLength {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// isSafeText rejects control and formatting characters.
func isSafeText(text string) bool {
	for _, r := range text {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
