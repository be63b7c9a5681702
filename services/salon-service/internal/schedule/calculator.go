package schedule

import (
	"slices"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ErrNoOpeningHours is the marker text for locations that cannot be scheduled.
const ErrNoOpeningHours = "Salon not found or opening hours not available"

type clockBreak struct {
	start, end int
	kind       string
}

// ComputeSchedule walks durationInDays calendar days starting at today (in
// today's location) and emits the day plan for one location.
//
// Days closed by a holiday carry only the holiday mark. Days without an
// opening-hours entry, or whose hours do not parse, are left out. Otherwise
// slots of avgMinutes are laid from opening time until the next slot would
// pass closing time; a slot overlapping a break is replaced by the break
// itself and the walk resumes at the break's end.
func ComputeSchedule(location string, hours []OpeningHours, breaks []Break, holidays []Holiday, avgMinutes, durationInDays int, today time.Time) LocationSchedule {
	if len(hours) == 0 {
		return LocationSchedule{Location: location, Schedule: []DaySchedule{}, Error: ErrNoOpeningHours}
	}

	out := LocationSchedule{Location: location, Schedule: []DaySchedule{}}
	if avgMinutes <= 0 {
		return out
	}
	parsedBreaks := parseBreaks(breaks)

	for i := 0; i < durationInDays; i++ {
		day := time.Date(today.Year(), today.Month(), today.Day()+i, 0, 0, 0, 0, today.Location())
		date := day.Format(DateLayout)

		if h, ok := holidayFor(holidays, date, location); ok {
			out.Schedule = append(out.Schedule, DaySchedule{Date: date, Holiday: &HolidayMark{Reason: h.Reason}})
			continue
		}

		dayHours, ok := hoursFor(hours, day.Weekday())
		if !ok {
			continue
		}
		open, err := ParseClock(dayHours.From)
		if err != nil {
			continue
		}
		closing, err := ParseClock(dayHours.To)
		if err != nil {
			continue
		}

		out.Schedule = append(out.Schedule, DaySchedule{Date: date, Slots: daySlots(open, closing, avgMinutes, parsedBreaks)})
	}
	return out
}

func daySlots(open, closing, step int, breaks []clockBreak) []Slot {
	var slots []Slot
	for cur := open; cur < closing; {
		end := cur + step
		if end > closing {
			break
		}
		if b, ok := firstOverlap(breaks, cur, end); ok {
			slots = append(slots, Slot{
				Start:   FormatClock(b.start),
				End:     FormatClock(min(b.end, closing)),
				IsBreak: true,
				Type:    b.kind,
			})
			cur = b.end
			continue
		}
		slots = append(slots, Slot{Start: FormatClock(cur), End: FormatClock(end)})
		cur = end
	}
	return slots
}

func firstOverlap(breaks []clockBreak, start, end int) (clockBreak, bool) {
	for _, b := range breaks {
		if start < b.end && end > b.start {
			return b, true
		}
	}
	return clockBreak{}, false
}

// parseBreaks keeps input order and drops breaks whose times do not parse
// or that end at or before they start.
func parseBreaks(breaks []Break) []clockBreak {
	out := make([]clockBreak, 0, len(breaks))
	for _, b := range breaks {
		start, err := ParseClock(b.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(b.End)
		if err != nil || end <= start {
			continue
		}
		out = append(out, clockBreak{start: start, end: end, kind: b.Type})
	}
	return out
}

func holidayFor(holidays []Holiday, date, location string) (Holiday, bool) {
	for _, h := range holidays {
		if h.Date == date && slices.Contains(h.Locations, location) {
			return h, true
		}
	}
	return Holiday{}, false
}

func hoursFor(hours []OpeningHours, wd time.Weekday) (OpeningHours, bool) {
	name := wd.String()
	for _, h := range hours {
		if strings.EqualFold(h.Day, name) {
			return h, true
		}
	}
	return OpeningHours{}, false
}
