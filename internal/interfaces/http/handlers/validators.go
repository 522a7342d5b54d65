package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/bivex/subscription-metrics/internal/application/dto"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom binding rules used by the stats DTOs.
// Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}

		// Report query parameter and JSON names instead of Go field names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})

		if registerErr = v.RegisterValidation("statsdate", func(fl validator.FieldLevel) bool {
			return dto.IsDate(fl.Field().String())
		}); registerErr != nil {
			return
		}
		registerErr = v.RegisterValidation("groupby", func(fl validator.FieldLevel) bool {
			return valueobject.GroupBy(fl.Field().String()).IsValid()
		})
	})
	return registerErr
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "statsdate":
		return "must be an RFC 3339 timestamp or a YYYY-MM-DD date"
	case "groupby":
		return "must be one of day, week, month, quarter"
	default:
		return "is invalid"
	}
}
