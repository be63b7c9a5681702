package model

import (
	"time"

	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

type Salon struct {
	SalonID         string                  `json:"salonID"`
	CreatedBy       string                  `json:"created_by"`
	Name            string                  `json:"name"`
	Gallery         []string                `json:"gallery"`
	Rating          float64                 `json:"rating"`
	TotalRevenue    float64                 `json:"totalRevenue"`
	ServicesOffered []string                `json:"servicesOffered"`
	Address         string                  `json:"address,omitempty"`
	OpeningHours    []schedule.OpeningHours `json:"openingHours"`
	Location        string                  `json:"location,omitempty"`
	Photo           string                  `json:"photo,omitempty"`
	Category        string                  `json:"category,omitempty"`
	IsOpen          bool                    `json:"isOpen"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// AvailabilityRecord is the stored calculation of one creator. There is at
// most one per CreatedBy.
type AvailabilityRecord struct {
	CreatedBy string                   `json:"createdBy"`
	Request   schedule.Request         `json:"request"`
	Response  []schedule.LocationGroup `json:"response"`
	Notes     string                   `json:"notes,omitempty"`
	Metadata  map[string]any           `json:"metadata,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}
