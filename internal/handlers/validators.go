package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"duoqueue-dating-app/internal/game"
)

// RegisterValidators installs the custom binding rules used by profile and
// filter payloads ("lane" and "rank" field tags).
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("lane", func(fl validator.FieldLevel) bool {
		return game.ValidLane(fl.Field().String())
	})
	_ = v.RegisterValidation("rank", func(fl validator.FieldLevel) bool {
		return game.ValidRank(fl.Field().String())
	})
}
