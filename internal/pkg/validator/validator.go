package validator

import (
	stderrors "errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/streetmap-tiles/internal/pkg/errors"
)

var (
	validate = newValidator()

	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	// slug - имена наборов слоев и коллекций в URL
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

// ToAppError переводит ошибки валидатора в INVALID_REQUEST с полями в details
func ToAppError(err error) *errors.AppError {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.ErrInvalidRequest.WithMessage(err.Error())
	}

	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return errors.ErrInvalidRequest.WithDetails(details)
}
