package utils

import (
	"testing"
	"time"

	"JagannathOPD/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func morningShift() *models.Shift {
	return &models.Shift{ShiftID: 1, StartTime: "09:00", StartTimeAMPM: "AM", EndTime: "01:00", EndTimeAMPM: "PM"}
}

func TestResolveShiftWindow(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	date, err := ParseDate("2026-10-20", loc)
	require.NoError(t, err)

	window, err := ResolveShiftWindow(morningShift(), date, loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 10, 20, 9, 0, 0, 0, loc), window.Start)
	assert.Equal(t, time.Date(2026, 10, 20, 13, 0, 0, 0, loc), window.End)
	assert.Equal(t, 240, window.Minutes())
}

func TestResolveShiftWindowAcceptsLooseFormats(t *testing.T) {
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	shift := &models.Shift{ShiftID: 2, StartTime: "2:30", StartTimeAMPM: "pm", EndTime: "05:45:00", EndTimeAMPM: " PM "}

	window, err := ResolveShiftWindow(shift, date, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 14, window.Start.Hour())
	assert.Equal(t, 30, window.Start.Minute())
	assert.Equal(t, 17, window.End.Hour())
	assert.Equal(t, 45, window.End.Minute())
}

func TestResolveShiftWindowErrors(t *testing.T) {
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		shift *models.Shift
	}{
		{"missing shift", nil},
		{"bad start", &models.Shift{ShiftID: 3, StartTime: "nine", StartTimeAMPM: "AM", EndTime: "01:00", EndTimeAMPM: "PM"}},
		{"bad marker", &models.Shift{ShiftID: 4, StartTime: "09:00", StartTimeAMPM: "XM", EndTime: "01:00", EndTimeAMPM: "PM"}},
		{"crosses midnight", &models.Shift{ShiftID: 5, StartTime: "10:00", StartTimeAMPM: "PM", EndTime: "02:00", EndTimeAMPM: "AM"}},
		{"zero length", &models.Shift{ShiftID: 6, StartTime: "09:00", StartTimeAMPM: "AM", EndTime: "09:00", EndTimeAMPM: "AM"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveShiftWindow(tt.shift, date, time.UTC)
			require.Error(t, err)
			assert.True(t, HasCode(err, CodeConfigurationError))
		})
	}
}
