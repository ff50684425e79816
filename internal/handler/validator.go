package handler

import (
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// newValidator builds the request validator with english translations and the
// strongpassword rule used by every password-accepting payload.
func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	trans, _ := ut.New(enLocale, enLocale).GetTranslator("en")

	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, err
	}

	if err := validate.RegisterValidation("strongpassword", validateStrongPassword); err != nil {
		return nil, nil, err
	}

	err := validate.RegisterTranslation(
		"strongpassword",
		trans,
		func(ut ut.Translator) error {
			return ut.Add(
				"strongpassword",
				"{0} must be at least 8 characters and contain an uppercase letter, a lowercase letter, a number and a special character",
				true,
			)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("strongpassword", fe.Field())
			return t
		},
	)
	if err != nil {
		return nil, nil, err
	}

	return validate, trans, nil
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSpecial
}
