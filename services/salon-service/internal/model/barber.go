package model

import "time"

type ReservedStatus string

const (
	StatusBooked     ReservedStatus = "booked"
	StatusCompleted  ReservedStatus = "completed"
	StatusInProgress ReservedStatus = "in_progress"
	StatusCanceled   ReservedStatus = "canceled"
	StatusAvailable  ReservedStatus = "available"
)

type Barber struct {
	BarberID     string      `json:"barberID"`
	EmployeeID   string      `json:"employeeID"`
	SalonID      string      `json:"salonID,omitempty"`
	CreatedBy    string      `json:"createdBy"`
	Name         string      `json:"name"`
	Notes        string      `json:"notes,omitempty"`
	Rating       float64     `json:"rating"`
	ActiveStatus bool        `json:"activeStatus"`
	Tips         []string    `json:"tips"`
	Availability []BarberDay `json:"availability"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// BarberDay is the barber's ledger for one date.
type BarberDay struct {
	Date    string        `json:"date"`
	Entries []BarberEntry `json:"entries"`
}

type BarberEntry struct {
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	TaskName       []string       `json:"taskName"`
	ReservedStatus ReservedStatus `json:"reservedStatus"`
	AppointmentID  string         `json:"appointmentID,omitempty"`
	Rating         *float64       `json:"rating,omitempty"`
	Tips           []string       `json:"tips,omitempty"`
}

// OpenEntry is an unreserved entry covering start..end.
func OpenEntry(start, end string) BarberEntry {
	return BarberEntry{
		StartTime:      start,
		EndTime:        end,
		TaskName:       []string{},
		ReservedStatus: StatusAvailable,
	}
}
