package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/smartfin/smartauth/internal/pkg/strcase"
)

var (
	// Minimum 6 characters, no maximum and no composition rules.
	rePassword = regexp.MustCompile(`^.{6,}$`)

	// Exactly one @ separating non-empty local and domain parts, with a dot
	// somewhere in the domain.
	reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// Validator validates annotated structs.
type Validator interface {
	Validate(data any) error
}

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
//
// Keys are field names in snake_case to match typical JSON conventions.
type V10ValidationError map[string]string

// Error implements the error interface.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerCustomRules(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	if err := v.validate.Struct(data); err != nil {
		var validateErrs validator.ValidationErrors
		if !errors.As(err, &validateErrs) {
			return err
		}

		errV10 := make(V10ValidationError)
		for _, fe := range validateErrs {
			errV10[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
		}

		return errV10
	}

	return nil
}

func registerCustomRules(validate *validator.Validate, enTrans ut.Translator) error {
	matchRule := func(re *regexp.Regexp) validator.Func {
		return func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			if !ok {
				return false
			}
			return re.MatchString(s)
		}
	}

	translateRule := func(t ut.Translator, fe validator.FieldError) string {
		msg, err := t.T(fe.Tag(), fe.Field())
		if err != nil {
			return fe.Tag()
		}
		return msg
	}

	if err := validate.RegisterValidation("password", matchRule(rePassword)); err != nil {
		return err
	}
	if err := validate.RegisterTranslation("password", enTrans,
		func(t ut.Translator) error {
			return t.Add("password", "{0} must be at least 6 characters", false)
		},
		translateRule,
	); err != nil {
		return err
	}

	if err := validate.RegisterValidation("emailaddr", matchRule(reEmail)); err != nil {
		return err
	}
	if err := validate.RegisterTranslation("emailaddr", enTrans,
		func(t ut.Translator) error {
			return t.Add("emailaddr", "{0} must be a valid email address", false)
		},
		translateRule,
	); err != nil {
		return err
	}

	return nil
}
