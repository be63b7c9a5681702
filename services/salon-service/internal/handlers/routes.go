package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
)

// Set bundles the handlers mounted by Register.
type Set struct {
	Auth     *AuthHandler
	Owner    *OwnerHandler
	Staff    *StaffHandler
	Salon    *SalonHandler
	Barber   *BarberHandler
	Schedule *ScheduleHandler
	Customer *CustomerHandler
}

// Register mounts every route on mux. Protected routes go through
// requireAuth; the public availability calculator goes through limit.
func (s Set) Register(mux *http.ServeMux, requireAuth, limit httpx.Middleware) {
	protect := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	mux.HandleFunc("POST /api/auth/register", s.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", s.Auth.Login)

	mux.HandleFunc("POST /api/owner/register", s.Owner.Register)
	mux.Handle("PUT /api/owner/update/{userID}", protect(s.Owner.Update))
	mux.Handle("GET /api/owner/{userID}", protect(s.Owner.Get))
	mux.Handle("DELETE /api/owner/{userID}", protect(s.Owner.Delete))
	mux.Handle("DELETE /api/owner/delete-owner/{userID}", protect(s.Owner.DeleteIfNoStaff))
	mux.Handle("DELETE /api/owner/force-delete/{userID}", protect(s.Owner.ForceDelete))

	mux.Handle("POST /api/staff/register", protect(s.Staff.Register))
	mux.Handle("PUT /api/staff/{employeeID}", protect(s.Staff.Update))
	mux.Handle("DELETE /api/staff/{employeeID}", protect(s.Staff.Delete))
	mux.Handle("GET /api/staff/{employeeID}", protect(s.Staff.Get))
	mux.Handle("GET /api/staff/location/{workLocation}", protect(s.Staff.ByLocation))

	mux.Handle("POST /api/salon/create", protect(s.Salon.Create))
	mux.Handle("PUT /api/salon/{salonID}", protect(s.Salon.Update))
	mux.Handle("GET /api/salon/salons/{salonID}", protect(s.Salon.Get))
	mux.Handle("GET /api/salon/salon/by-user", protect(s.Salon.ByUser))

	mux.Handle("POST /api/barber/availability", limit(http.HandlerFunc(s.Barber.Availability)))
	mux.Handle("POST /api/barber/assign-availability", protect(s.Barber.Assign))
	mux.Handle("POST /api/barber/create", protect(s.Barber.Create))
	mux.Handle("GET /api/barber/{barberID}", protect(s.Barber.Get))

	mux.Handle("POST /api/schedule/createschedule", protect(s.Schedule.Create))
	mux.Handle("PUT /api/schedule/updateschedule", protect(s.Schedule.Update))
	mux.Handle("GET /api/schedule", protect(s.Schedule.Get))
	mux.Handle("DELETE /api/schedule", protect(s.Schedule.Delete))

	mux.Handle("POST /api/customers", protect(s.Customer.Create))
	mux.Handle("GET /api/customers", protect(s.Customer.List))
	mux.Handle("GET /api/customer/me", protect(s.Customer.Me))
}
