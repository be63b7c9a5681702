package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

// Availability is the orchestrator surface used by the schedule and barber routes.
type Availability interface {
	Calculate(ctx context.Context, req schedule.Request) (availability.Result, error)
	Save(ctx context.Context, createdBy string, in availability.SaveInput) (model.AvailabilityRecord, error)
	Update(ctx context.Context, createdBy string, in availability.SaveInput) (model.AvailabilityRecord, error)
	Get(ctx context.Context, createdBy string) (model.AvailabilityRecord, error)
	Delete(ctx context.Context, createdBy string) error
}

type ScheduleHandler struct {
	svc    Availability
	logger *slog.Logger
}

func NewScheduleHandler(svc Availability, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: logger}
}

type scheduleRequest struct {
	Request  schedule.Request         `json:"request" validate:"required"`
	Response []schedule.LocationGroup `json:"response"`
	Notes    string                   `json:"notes" validate:"max=2000"`
	Metadata map[string]any           `json:"metadata"`
}

func (b scheduleRequest) input() availability.SaveInput {
	return availability.SaveInput{
		Request:  b.Request,
		Response: b.Response,
		Notes:    b.Notes,
		Metadata: b.Metadata,
	}
}

type recordResponse struct {
	Message string                   `json:"message"`
	Data    model.AvailabilityRecord `json:"data"`
}

// Create handles POST /api/schedule/createschedule.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	body, err := decode[scheduleRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to save availability data.")
		return
	}
	rec, err := h.svc.Save(r.Context(), id.UserID, body.input())
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to save availability data.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, recordResponse{Message: "Availability data saved successfully.", Data: rec})
}

// Update handles PUT /api/schedule/updateschedule.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	body, err := decode[scheduleRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to update availability data.")
		return
	}
	rec, err := h.svc.Update(r.Context(), id.UserID, body.input())
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to update availability data.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, recordResponse{Message: "Availability data updated successfully.", Data: rec})
}

// Get handles GET /api/schedule.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Get(r.Context(), id.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to load availability data.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/schedule.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID); err != nil {
		writeFailure(w, r, h.logger, err, "Failed to delete availability data.")
		return
	}
	writeMessage(w, http.StatusOK, "Availability data deleted successfully.")
}
