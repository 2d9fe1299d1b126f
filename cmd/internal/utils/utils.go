package utils

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const DateLayout = "2006-01-02"

func FormatEpoch(millis int64) string {
	return time.UnixMilli(millis).
		UTC().
		Format(time.RFC3339)
}

// FormatEpochPtr formats an optional timestamp, keeping nil as nil.
func FormatEpochPtr(millis *int64) *string {
	if millis == nil {
		return nil
	}
	s := FormatEpoch(*millis)
	return &s
}

func NowUTC() int64 {
	return time.Now().
		UTC().
		UnixMilli()
}

func FromEpoch(rfc string) (int64, error) {
	t, err := time.Parse(time.RFC3339, rfc)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// ParseDate parses "YYYY-MM-DD" as a calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// Today returns the current calendar date in loc, at midnight.
func Today(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// ParseClock parses "HH:MM" into a time of day.
func ParseClock(s string) (datatypes.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return datatypes.NewTime(t.Hour(), t.Minute(), 0, 0), nil
}

// FormatClock renders a time of day as "HH:MM".
func FormatClock(t datatypes.Time) string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func Sanitize(o any) {
	v := reflect.ValueOf(o)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		panic("sanitize: expected pointer to struct")
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		panic("sanitize: expected struct")
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(sanitizeString(field.String()))

		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.String {
				field.Elem().SetString(sanitizeString(field.Elem().String()))
			}

		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					field.Index(j).SetString(sanitizeString(field.Index(j).String()))
				}
			}
		}
	}
}

func sanitizeString(s string) string {
	return strings.TrimSpace(s)
}
