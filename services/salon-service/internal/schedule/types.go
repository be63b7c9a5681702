// Package schedule computes bookable time slots per salon location and
// folds locations with identical results into groups.
//
// Everything here is pure: callers supply opening hours and the calendar
// day to start from, and receive plain values back.
package schedule

// OpeningHours is one weekday's opening window, e.g. {"Monday", "09:00", "17:00"}.
type OpeningHours struct {
	Day  string `json:"day" validate:"required,weekday"`
	From string `json:"from" validate:"required,hhmm"`
	To   string `json:"to" validate:"required,hhmm"`
}

// Break applies to every day and location of one calculation.
type Break struct {
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm,clockafter=Start"`
	Type  string `json:"type"`
}

// Holiday closes the listed locations for the whole date.
type Holiday struct {
	Date      string   `json:"date" validate:"required,ymd"`
	Reason    string   `json:"reason"`
	Locations []string `json:"locations"`
}

type Slot struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	IsBreak bool   `json:"isBreak"`
	Type    string `json:"type,omitempty"`
}

type HolidayMark struct {
	Reason string `json:"reason"`
}

// DaySchedule carries either a holiday mark or slots, never both.
type DaySchedule struct {
	Date    string       `json:"date"`
	Holiday *HolidayMark `json:"holiday,omitempty"`
	Slots   []Slot       `json:"slots,omitempty"`
}

// LocationSchedule is the calculator output for one location. A non-empty
// Error marks a location that was skipped; its Schedule is empty.
type LocationSchedule struct {
	Location string        `json:"location"`
	Schedule []DaySchedule `json:"schedule"`
	Error    string        `json:"error,omitempty"`
}

// LocationGroup is a set of locations whose schedules are identical.
type LocationGroup struct {
	Locations []string      `json:"locations"`
	Schedule  []DaySchedule `json:"schedule"`
}

// Request holds the calculation parameters as sent by clients.
type Request struct {
	AverageMinutesPerCustomer int       `json:"averageMinutesPerCustomer" validate:"required,gt=0,lte=1440"`
	Breaks                    []Break   `json:"breaks" validate:"dive"`
	Locations                 []string  `json:"locations" validate:"required,min=1,dive,required"`
	DurationInDays            int       `json:"durationInDays" validate:"gte=0,lte=366"`
	Holidays                  []Holiday `json:"holidays" validate:"dive"`
}
