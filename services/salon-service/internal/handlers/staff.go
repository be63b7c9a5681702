package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

type StaffStore interface {
	RegisterStaff(ctx context.Context, u model.User, s model.Staff) (model.Staff, error)
	UpdateStaff(ctx context.Context, u model.User, s model.Staff) (model.Staff, error)
	DeleteStaff(ctx context.Context, employeeID string) error
	GetStaff(ctx context.Context, employeeID string) (model.Staff, error)
	StaffByLocation(ctx context.Context, workLocation string) ([]model.Staff, error)
}

type StaffHandler struct {
	staff  StaffStore
	logger *slog.Logger
}

func NewStaffHandler(staff StaffStore, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{staff: staff, logger: logger}
}

type staffRequest struct {
	Name              string   `json:"name" validate:"required,max=200"`
	Email             string   `json:"email" validate:"required,email"`
	Password          string   `json:"password" validate:"omitempty,password"`
	Role              string   `json:"role" validate:"max=100"`
	WorkLocation      string   `json:"workLocation" validate:"required,max=200"`
	Salary            float64  `json:"salary" validate:"gte=0"`
	Phone             string   `json:"phone" validate:"required,phone10"`
	Availability      *int     `json:"availability" validate:"omitempty,gte=0,lte=100"`
	Experience        int      `json:"experience" validate:"gte=0"`
	Specialization    string   `json:"specialization" validate:"max=200"`
	HireDate          string   `json:"hireDate" validate:"omitempty,ymd"`
	PerformanceRating *float64 `json:"performanceRating" validate:"omitempty,gte=0,lte=5"`
}

func (s staffRequest) staff(employeeID, createdBy string) model.Staff {
	availability := 100
	if s.Availability != nil {
		availability = *s.Availability
	}
	out := model.Staff{
		EmployeeID:        employeeID,
		CreatedBy:         createdBy,
		Name:              strings.TrimSpace(s.Name),
		Role:              s.Role,
		WorkLocation:      strings.TrimSpace(s.WorkLocation),
		Salary:            s.Salary,
		Phone:             s.Phone,
		Email:             strings.ToLower(strings.TrimSpace(s.Email)),
		Availability:      availability,
		Experience:        s.Experience,
		Specialization:    s.Specialization,
		PerformanceRating: s.PerformanceRating,
	}
	if d, err := time.Parse(schedule.DateLayout, s.HireDate); err == nil {
		out.HireDate = &d
	}
	return out
}

// Register handles POST /api/staff/register. The caller becomes created_by.
func (h *StaffHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	if !model.Role(id.Role).CanManageSchedules() {
		writeMessage(w, http.StatusForbidden, "Only owners and staff can register staff")
		return
	}
	req, err := decode[staffRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to register staff.")
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Password is required")
		return
	}
	u, err := newUser(model.RoleStaff, req.Name, req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to register staff.")
		return
	}
	s, err := h.staff.RegisterStaff(r.Context(), u, req.staff(u.ID, id.UserID))
	if err != nil {
		writeFailure(w, r, h.logger, emailTaken(err), "Failed to register staff.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Staff registered successfully", "staff": s})
}

// managed loads the staff member in the path and checks the caller is the
// member or whoever created them.
func (h *StaffHandler) managed(w http.ResponseWriter, r *http.Request) (model.Staff, bool) {
	id, ok := caller(w, r)
	if !ok {
		return model.Staff{}, false
	}
	s, err := h.staff.GetStaff(r.Context(), r.PathValue("employeeID"))
	if err != nil {
		writeFailure(w, r, h.logger, named(err, "Staff not found"), "Failed to load staff.")
		return model.Staff{}, false
	}
	if id.UserID != s.EmployeeID && id.UserID != s.CreatedBy {
		writeMessage(w, http.StatusForbidden, "You can only manage staff you created")
		return model.Staff{}, false
	}
	return s, true
}

// Update handles PUT /api/staff/{employeeID}.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	current, ok := h.managed(w, r)
	if !ok {
		return
	}
	req, err := decode[staffRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to update staff.")
		return
	}
	next := req.staff(current.EmployeeID, current.CreatedBy)
	u := model.User{ID: current.EmployeeID, Name: next.Name, Email: next.Email}
	if req.Password != "" {
		if u.PasswordHash, err = hashPassword(req.Password); err != nil {
			writeFailure(w, r, h.logger, err, "Failed to update staff.")
			return
		}
	}
	s, err := h.staff.UpdateStaff(r.Context(), u, next)
	if err != nil {
		writeFailure(w, r, h.logger, emailTaken(err), "Failed to update staff.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Staff and user updated successfully", "staff": s})
}

// Delete handles DELETE /api/staff/{employeeID}.
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current, ok := h.managed(w, r)
	if !ok {
		return
	}
	if err := h.staff.DeleteStaff(r.Context(), current.EmployeeID); err != nil {
		writeFailure(w, r, h.logger, named(err, "Staff not found"), "Failed to delete staff.")
		return
	}
	writeMessage(w, http.StatusOK, "Staff and user deleted successfully")
}

// Get handles GET /api/staff/{employeeID}.
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	s, err := h.staff.GetStaff(r.Context(), r.PathValue("employeeID"))
	if err != nil {
		writeFailure(w, r, h.logger, named(err, "Staff not found"), "Failed to load staff.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

// ByLocation handles GET /api/staff/location/{workLocation}.
func (h *StaffHandler) ByLocation(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	staff, err := h.staff.StaffByLocation(r.Context(), r.PathValue("workLocation"))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to load staff.")
		return
	}
	if len(staff) == 0 {
		writeMessage(w, http.StatusNotFound, "No staff found for this location")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, staff)
}
