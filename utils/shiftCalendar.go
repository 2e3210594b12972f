package utils

import (
	"fmt"
	"strings"
	"time"

	"JagannathOPD/models"
)

// DateLayout is the wire and storage format of consultation dates.
const DateLayout = "2006-01-02"

// SlotTimeLayout is the storage format of a slot's time of day.
const SlotTimeLayout = "15:04"

var shiftClockLayouts = []string{"3:04 PM", "3:04:05 PM"}

// ShiftWindow is a shift anchored on a concrete date.
type ShiftWindow struct {
	Start time.Time
	End   time.Time
}

// Minutes is the length of the window in whole minutes.
func (w ShiftWindow) Minutes() int {
	return int(w.End.Sub(w.Start) / time.Minute)
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}

// ResolveShiftWindow anchors the shift's 12-hour start and end times on date.
// Windows that do not end after they start, including shifts that cross
// midnight, are rejected.
func ResolveShiftWindow(shift *models.Shift, date time.Time, loc *time.Location) (ShiftWindow, error) {
	if shift == nil {
		return ShiftWindow{}, ConfigurationError("shift not found")
	}

	start, err := parseShiftClock(shift.StartTime, shift.StartTimeAMPM)
	if err != nil {
		return ShiftWindow{}, WrapAppError(err, KindConfiguration, CodeConfigurationError,
			fmt.Sprintf("shift %d has an invalid start time", shift.ShiftID))
	}
	end, err := parseShiftClock(shift.EndTime, shift.EndTimeAMPM)
	if err != nil {
		return ShiftWindow{}, WrapAppError(err, KindConfiguration, CodeConfigurationError,
			fmt.Sprintf("shift %d has an invalid end time", shift.ShiftID))
	}

	window := ShiftWindow{
		Start: anchor(date, start, loc),
		End:   anchor(date, end, loc),
	}
	if !window.End.After(window.Start) {
		return ShiftWindow{}, ConfigurationError(
			fmt.Sprintf("shift %d must end after it starts on the same day", shift.ShiftID))
	}
	return window, nil
}

func parseShiftClock(clock, marker string) (time.Time, error) {
	value := strings.TrimSpace(clock) + " " + strings.ToUpper(strings.TrimSpace(marker))
	var lastErr error
	for _, layout := range shiftClockLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func anchor(date, clock time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
}
