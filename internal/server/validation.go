package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mobbind-dev/mobbind/internal/config"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerValidationsOnce installs the custom rules on first use; gin's validator is process-global
func registerValidationsOnce() error {
	registerOnce.Do(func() {
		registerErr = registerValidations()
	})
	return registerErr
}

// registerValidations installs custom rules on gin's validator engine
func registerValidations() error {
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}

	// Report fields by their wire name (json or form tag) instead of the Go field name
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})

	// notblank rejects values that are empty once surrounding whitespace is removed
	if err := validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return err
	}

	return validate.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return config.ValidPlatform(fl.Field().String())
	})
}

// validationMessage turns a binding error into a message a caller can act on
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Sprintf("Invalid request: %v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "notblank":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "platform":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(config.Platforms, ", ")))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
