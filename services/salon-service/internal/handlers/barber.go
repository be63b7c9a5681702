package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/distributor"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

type Assigner interface {
	Assign(ctx context.Context, createdBy string) (distributor.Result, error)
}

type BarberStore interface {
	CreateBarber(ctx context.Context, b model.Barber) (model.Barber, error)
	GetBarber(ctx context.Context, barberID string) (model.Barber, error)
}

type BarberHandler struct {
	availability Availability
	assigner     Assigner
	barbers      BarberStore
	logger       *slog.Logger
}

func NewBarberHandler(availability Availability, assigner Assigner, barbers BarberStore, logger *slog.Logger) *BarberHandler {
	return &BarberHandler{availability: availability, assigner: assigner, barbers: barbers, logger: logger}
}

// Availability handles the public POST /api/barber/availability. Nothing is stored.
func (h *BarberHandler) Availability(w http.ResponseWriter, r *http.Request) {
	req, err := decode[schedule.Request](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to calculate availability.")
		return
	}
	res, err := h.availability.Calculate(r.Context(), req)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to calculate availability.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

type assignResponse struct {
	Message string `json:"message"`
	distributor.Result
}

// Assign handles POST /api/barber/assign-availability for the caller's stored schedule.
func (h *BarberHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	res, err := h.assigner.Assign(r.Context(), id.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to assign schedules.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, assignResponse{Message: "Schedules assigned successfully", Result: res})
}

type createBarberRequest struct {
	EmployeeID   string   `json:"employeeID" validate:"required"`
	SalonID      string   `json:"salonID"`
	Name         string   `json:"name" validate:"required,max=200"`
	Notes        string   `json:"notes" validate:"max=2000"`
	Rating       float64  `json:"rating" validate:"gte=0,lte=5"`
	ActiveStatus *bool    `json:"activeStatus"`
	Tips         []string `json:"tips"`
}

// Create handles POST /api/barber/create. The ledger starts empty.
func (h *BarberHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	if !model.Role(id.Role).CanManageSchedules() {
		writeMessage(w, http.StatusForbidden, "Only owners and staff can create barbers")
		return
	}
	req, err := decode[createBarberRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to create barber.")
		return
	}
	active := true
	if req.ActiveStatus != nil {
		active = *req.ActiveStatus
	}
	b, err := h.barbers.CreateBarber(r.Context(), model.Barber{
		BarberID:     "barber-" + uuid.NewString(),
		EmployeeID:   strings.TrimSpace(req.EmployeeID),
		SalonID:      strings.TrimSpace(req.SalonID),
		CreatedBy:    id.UserID,
		Name:         strings.TrimSpace(req.Name),
		Notes:        req.Notes,
		Rating:       req.Rating,
		ActiveStatus: active,
		Tips:         req.Tips,
		Availability: []model.BarberDay{},
	})
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to create barber.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Barber created successfully", "barber": b})
}

// Get handles GET /api/barber/{barberID}.
func (h *BarberHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	b, err := h.barbers.GetBarber(r.Context(), r.PathValue("barberID"))
	if err != nil {
		writeFailure(w, r, h.logger, named(err, "Barber not found"), "Failed to load barber.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}
