// Package validators holds the custom validator tags used by request structs.
package validators

import (
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	clockRegex    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	lastFourRegex = regexp.MustCompile(`^\d{4}$`)
)

var weekdays = map[string]struct{}{
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
}

// New returns a validator with every custom tag registered and field
// names reported by their json name.
func New() *validator.Validate {
	validate := validator.New()
	Register(validate)
	return validate
}

func Register(validate *validator.Validate) {
	_ = validate.RegisterValidation("hasupper", HasUpper)
	_ = validate.RegisterValidation("haslower", HasLower)
	_ = validate.RegisterValidation("hasdigit", HasDigit)
	_ = validate.RegisterValidation("hasspecial", HasSpecial)
	_ = validate.RegisterValidation("nodupes", NoDupes)
	_ = validate.RegisterValidation("nospaces", NoWhiteSpaces)
	_ = validate.RegisterValidation("iso8601", IsIso8601)
	_ = validate.RegisterValidation("isodate", IsISODate)
	_ = validate.RegisterValidation("clock", IsClock)
	_ = validate.RegisterValidation("weekday", IsWeekday)
	_ = validate.RegisterValidation("lastfour", IsLastFour)

	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	validate.RegisterTagNameFunc(jsonName)
}

func HasUpper(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsUpper) >= 0
}

func HasLower(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsLower) >= 0
}

func HasDigit(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsDigit) >= 0
}

func HasSpecial(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) >= 0
}

// NoDupes rejects slices of strings with repeated entries.
func NoDupes(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	seen := make(map[string]struct{}, field.Len())
	for i := 0; i < field.Len(); i++ {
		s := field.Index(i).String()
		if _, ok := seen[s]; ok {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}

func NoWhiteSpaces(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsSpace) < 0
}

func IsIso8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

// IsISODate accepts calendar dates written as YYYY-MM-DD.
func IsISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// IsClock accepts a 24h time of day written as HH:MM.
func IsClock(fl validator.FieldLevel) bool {
	return clockRegex.MatchString(fl.Field().String())
}

func IsWeekday(fl validator.FieldLevel) bool {
	_, ok := weekdays[fl.Field().String()]
	return ok
}

func IsLastFour(fl validator.FieldLevel) bool {
	return lastFourRegex.MatchString(fl.Field().String())
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
