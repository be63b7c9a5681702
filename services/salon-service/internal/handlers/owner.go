package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
)

type OwnerStore interface {
	RegisterOwner(ctx context.Context, u model.User, o model.Owner) (model.Owner, error)
	UpdateOwner(ctx context.Context, u model.User, o model.Owner) (model.Owner, error)
	GetOwner(ctx context.Context, ownerID string) (model.Owner, error)
	DeleteOwner(ctx context.Context, ownerID string) error
	DeleteOwnerWithoutStaff(ctx context.Context, ownerID string) error
	ForceDeleteOwner(ctx context.Context, ownerID string) error
}

type OwnerHandler struct {
	owners OwnerStore
	logger *slog.Logger
}

func NewOwnerHandler(owners OwnerStore, logger *slog.Logger) *OwnerHandler {
	return &OwnerHandler{owners: owners, logger: logger}
}

type ownerRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"omitempty,password"`
	Phone        string  `json:"phone" validate:"omitempty,phone10"`
	Address      string  `json:"address" validate:"max=500"`
	Note         string  `json:"note" validate:"max=2000"`
	TotalRevenue float64 `json:"totalRevenue" validate:"gte=0"`
}

func (o ownerRequest) owner(id string) model.Owner {
	return model.Owner{
		OwnerID:      id,
		Name:         strings.TrimSpace(o.Name),
		Email:        strings.ToLower(strings.TrimSpace(o.Email)),
		Phone:        o.Phone,
		Address:      o.Address,
		Note:         o.Note,
		TotalRevenue: o.TotalRevenue,
	}
}

// Register handles the public POST /api/owner/register.
func (h *OwnerHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := decode[ownerRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to register owner.")
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Password is required")
		return
	}
	u, err := newUser(model.RoleOwner, req.Name, req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to register owner.")
		return
	}
	o, err := h.owners.RegisterOwner(r.Context(), u, req.owner(u.ID))
	if err != nil {
		writeFailure(w, r, h.logger, emailTaken(err), "Failed to register owner.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Owner registered successfully", "owner": o})
}

// self reports whether the caller is the owner named in the path, answering
// 403 when not.
func self(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := caller(w, r)
	if !ok {
		return "", false
	}
	target := r.PathValue("userID")
	if target != id.UserID {
		writeMessage(w, http.StatusForbidden, "You can only manage your own account")
		return "", false
	}
	return target, true
}

// Update handles PUT /api/owner/update/{userID}.
func (h *OwnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := self(w, r)
	if !ok {
		return
	}
	req, err := decode[ownerRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to update owner.")
		return
	}
	u := model.User{ID: ownerID, Name: strings.TrimSpace(req.Name), Email: strings.ToLower(strings.TrimSpace(req.Email))}
	if req.Password != "" {
		if u.PasswordHash, err = hashPassword(req.Password); err != nil {
			writeFailure(w, r, h.logger, err, "Failed to update owner.")
			return
		}
	}
	o, err := h.owners.UpdateOwner(r.Context(), u, req.owner(ownerID))
	if err != nil {
		writeFailure(w, r, h.logger, emailTaken(err), "Failed to update owner.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Owner and user updated successfully", "owner": o})
}

// Get handles GET /api/owner/{userID}.
func (h *OwnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	o, err := h.owners.GetOwner(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeFailure(w, r, h.logger, named(err, "Owner not found"), "Failed to load owner.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

// Delete handles DELETE /api/owner/{userID}.
func (h *OwnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.owners.DeleteOwner, "Owner and user deleted successfully")
}

// DeleteIfNoStaff handles DELETE /api/owner/delete-owner/{userID}.
func (h *OwnerHandler) DeleteIfNoStaff(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.owners.DeleteOwnerWithoutStaff, "Owner deleted successfully")
}

// ForceDelete handles DELETE /api/owner/force-delete/{userID}.
func (h *OwnerHandler) ForceDelete(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.owners.ForceDeleteOwner, "Owner, staff and users deleted successfully")
}

func (h *OwnerHandler) remove(w http.ResponseWriter, r *http.Request, del func(context.Context, string) error, done string) {
	ownerID, ok := self(w, r)
	if !ok {
		return
	}
	if err := del(r.Context(), ownerID); err != nil {
		writeFailure(w, r, h.logger, named(err, "Owner not found"), "Failed to delete owner.")
		return
	}
	writeMessage(w, http.StatusOK, done)
}
