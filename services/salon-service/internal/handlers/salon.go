package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

type SalonStore interface {
	CreateSalon(ctx context.Context, s model.Salon) (model.Salon, error)
	UpdateSalon(ctx context.Context, s model.Salon) (model.Salon, error)
	GetSalon(ctx context.Context, salonID string) (model.Salon, error)
	SalonsByCreator(ctx context.Context, createdBy string) ([]model.Salon, error)
}

type SalonHandler struct {
	salons SalonStore
	logger *slog.Logger
}

func NewSalonHandler(salons SalonStore, logger *slog.Logger) *SalonHandler {
	return &SalonHandler{salons: salons, logger: logger}
}

type salonRequest struct {
	Name            string                  `json:"name" validate:"required,max=200"`
	Gallery         []string                `json:"gallery" validate:"dive,required"`
	Rating          float64                 `json:"rating" validate:"gte=0,lte=5"`
	TotalRevenue    float64                 `json:"totalRevenue" validate:"gte=0"`
	ServicesOffered []string                `json:"servicesOffered" validate:"dive,required"`
	Address         string                  `json:"address" validate:"max=500"`
	OpeningHours    []schedule.OpeningHours `json:"openingHours" validate:"weekdays,dive"`
	Location        string                  `json:"location" validate:"required,max=200"`
	Photo           string                  `json:"photo" validate:"omitempty,url"`
	Category        string                  `json:"category" validate:"max=100"`
	IsOpen          bool                    `json:"isOpen"`
}

func (s salonRequest) salon(salonID, createdBy string) model.Salon {
	return model.Salon{
		SalonID:         salonID,
		CreatedBy:       createdBy,
		Name:            strings.TrimSpace(s.Name),
		Gallery:         s.Gallery,
		Rating:          s.Rating,
		TotalRevenue:    s.TotalRevenue,
		ServicesOffered: s.ServicesOffered,
		Address:         s.Address,
		OpeningHours:    s.OpeningHours,
		Location:        strings.TrimSpace(s.Location),
		Photo:           s.Photo,
		Category:        s.Category,
		IsOpen:          s.IsOpen,
	}
}

// Create handles POST /api/salon/create.
func (h *SalonHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	if !model.Role(id.Role).CanManageSchedules() {
		writeMessage(w, http.StatusForbidden, "Only owners and staff can create salons")
		return
	}
	req, err := decode[salonRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to create salon.")
		return
	}
	s, err := h.salons.CreateSalon(r.Context(), req.salon("salon-"+uuid.NewString(), id.UserID))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to create salon.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Salon created successfully", "salon": s})
}

// Update handles PUT /api/salon/{salonID}. Only the creator's salons match.
func (h *SalonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	req, err := decode[salonRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to update salon.")
		return
	}
	s, err := h.salons.UpdateSalon(r.Context(), req.salon(r.PathValue("salonID"), id.UserID))
	if err != nil {
		writeFailure(w, r, h.logger, named(err, "Salon not found or you are not its creator"), "Failed to update salon.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Salon updated successfully", "salon": s})
}

// Get handles GET /api/salon/salons/{salonID}.
func (h *SalonHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	s, err := h.salons.GetSalon(r.Context(), r.PathValue("salonID"))
	if err != nil {
		writeFailure(w, r, h.logger, named(err, "Salon not found"), "Failed to load salon.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

// ByUser handles GET /api/salon/salon/by-user.
func (h *SalonHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	salons, err := h.salons.SalonsByCreator(r.Context(), id.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to load salons.")
		return
	}
	if len(salons) == 0 {
		writeMessage(w, http.StatusNotFound, "No salons found for this user")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, salons)
}
