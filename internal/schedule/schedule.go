package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	SlotMinutes = 30
	DayStart    = "09:00"
	DayEnd      = "17:00"

	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidDate = errors.New("invalid date format")
	ErrInvalidTime = errors.New("invalid time format")
)

var slots = buildSlots()

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse(ClockLayout, timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func MinutesToClock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// IsDatePast reports whether dateStr is strictly before today in loc.
func IsDatePast(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	local := now.In(loc)
	startToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return date.Before(startToday), nil
}

// Slots returns the bookable start times, half-hour steps inside the
// business window. The returned slice is a copy.
func Slots() []string {
	out := make([]string, len(slots))
	copy(out, slots)
	return out
}

func IsSlot(timeStr string) bool {
	for _, s := range slots {
		if s == timeStr {
			return true
		}
	}
	return false
}

func buildSlots() []string {
	start, err := ParseClockToMinutes(DayStart)
	if err != nil {
		panic(err)
	}
	end, err := ParseClockToMinutes(DayEnd)
	if err != nil {
		panic(err)
	}
	out := make([]string, 0, (end-start)/SlotMinutes)
	for cursor := start; cursor+SlotMinutes <= end; cursor += SlotMinutes {
		out = append(out, MinutesToClock(cursor))
	}
	return out
}
