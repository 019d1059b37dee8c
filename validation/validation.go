package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

// New returns a validator that understands decimal amounts and the password
// mix rule, together with its English translator.
func New() (*validator.Validate, ut.Translator, error) {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	v.RegisterTagNameFunc(jsonName)

	eng := en.New()
	uni := ut.New(eng, eng)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, nil, fmt.Errorf("translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, nil, err
	}

	if err := v.RegisterValidation("pwdmix", passwordMix); err != nil {
		return nil, nil, err
	}
	err := v.RegisterTranslation("pwdmix", trans,
		func(ut ut.Translator) error {
			return ut.Add("pwdmix", "{0} must contain a lowercase letter, an uppercase letter and a digit", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("pwdmix", fe.Field())
			return t
		})
	if err != nil {
		return nil, nil, err
	}
	return v, trans, nil
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func passwordMix(fl validator.FieldLevel) bool {
	return PasswordMix(fl.Field().String())
}

// PasswordMix reports whether s holds a lowercase letter, an uppercase letter
// and a digit.
func PasswordMix(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// Messages flattens validator errors into translated messages keyed by the
// json field name.
func Messages(err error, trans ut.Translator) (map[string]string, bool) {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Translate(trans)
	}
	return out, true
}
