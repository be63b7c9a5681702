package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
)

type CustomerStore interface {
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
}

type CustomerHandler struct {
	customers CustomerStore
	logger    *slog.Logger
}

func NewCustomerHandler(customers CustomerStore, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: logger}
}

type customerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Create handles POST /api/customers.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decode[customerRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to create customer.")
		return
	}
	c, err := h.customers.CreateCustomer(r.Context(), model.Customer{
		ID:    "customer-" + uuid.NewString(),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	})
	if err != nil {
		if isConflict(err) {
			writeMessage(w, http.StatusConflict, "Email already registered")
			return
		}
		writeFailure(w, r, h.logger, err, "Failed to create customer.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

// List handles GET /api/customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.customers.ListCustomers(r.Context())
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to load customers.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// Me handles GET /api/customer/me.
func (h *CustomerHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	c, err := h.customers.GetCustomer(r.Context(), id.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, named(err, "Customer not found"), "Failed to load customer.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}
