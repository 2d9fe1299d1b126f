package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSanitize(t *testing.T) {
	note := "  bring keys "
	req := struct {
		Name  string
		Note  *string
		Tags  []string
		Count int
	}{Name: " Jane ", Note: &note, Tags: []string{" a", "b "}, Count: 3}

	Sanitize(&req)

	require.Equal(t, "Jane", req.Name)
	require.Equal(t, "bring keys", *req.Note)
	require.Equal(t, []string{"a", "b"}, req.Tags)
	require.Equal(t, 3, req.Count)
}

func TestSanitize_PanicsOnValue(t *testing.T) {
	require.Panics(t, func() { Sanitize(struct{}{}) })
}

func TestClock(t *testing.T) {
	tests := []struct {
		in      string
		want    datatypes.Time
		wantErr bool
	}{
		{in: "09:00", want: datatypes.NewTime(9, 0, 0, 0)},
		{in: "23:30", want: datatypes.NewTime(23, 30, 0, 0)},
		{in: "24:00", wantErr: true},
		{in: "9am", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.in, FormatClock(got))
		})
	}
}

func TestParseDate(t *testing.T) {
	loc := time.UTC
	d, err := ParseDate("2030-01-07", loc)
	require.NoError(t, err)
	require.Equal(t, time.Monday, d.Weekday())

	_, err = ParseDate("07/01/2030", loc)
	require.Error(t, err)
}

func TestFormatEpoch(t *testing.T) {
	require.Equal(t, "1970-01-01T00:00:01Z", FormatEpoch(1000))
	require.Nil(t, FormatEpochPtr(nil))

	millis, err := FromEpoch("1970-01-01T00:00:01Z")
	require.NoError(t, err)
	require.EqualValues(t, 1000, millis)
}
