package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/distributor"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
)

// fakeStore keeps every table in memory.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]model.User
	owners    map[string]model.Owner
	staff     map[string]model.Staff
	salons    map[string]model.Salon
	barbers   map[string]model.Barber
	records   map[string]model.AvailabilityRecord
	customers map[string]model.Customer
	fail      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]model.User{},
		owners:    map[string]model.Owner{},
		staff:     map[string]model.Staff{},
		salons:    map[string]model.Salon{},
		barbers:   map[string]model.Barber{},
		records:   map[string]model.AvailabilityRecord{},
		customers: map[string]model.Customer{},
	}
}

func (f *fakeStore) addUser(u model.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperr.ErrConflict
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) RegisterUser(_ context.Context, u model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.addUser(u); err != nil {
		return err
	}
	if u.Role == model.RoleCustomer {
		f.customers[u.ID] = model.Customer{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return nil
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, apperr.ErrNotFound
}

func (f *fakeStore) GetCustomer(_ context.Context, id string) (model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return model.Customer{}, apperr.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) CreateCustomer(_ context.Context, c model.Customer) (model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.customers {
		if existing.Email == c.Email {
			return model.Customer{}, apperr.ErrConflict
		}
	}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeStore) ListCustomers(context.Context) ([]model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]model.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeStore) RegisterOwner(_ context.Context, u model.User, o model.Owner) (model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.addUser(u); err != nil {
		return model.Owner{}, err
	}
	f.owners[o.OwnerID] = o
	return o, nil
}

func (f *fakeStore) UpdateOwner(_ context.Context, u model.User, o model.Owner) (model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.owners[o.OwnerID]; !ok {
		return model.Owner{}, apperr.NotFound("Owner not found")
	}
	f.owners[o.OwnerID] = o
	return o, nil
}

func (f *fakeStore) GetOwner(_ context.Context, ownerID string) (model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.owners[ownerID]
	if !ok {
		return model.Owner{}, apperr.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) DeleteOwner(_ context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.owners[ownerID]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.owners, ownerID)
	delete(f.users, ownerID)
	return nil
}

func (f *fakeStore) DeleteOwnerWithoutStaff(ctx context.Context, ownerID string) error {
	f.mu.Lock()
	for _, s := range f.staff {
		if s.CreatedBy == ownerID {
			f.mu.Unlock()
			return apperr.Invalid("Owner still has staff members; delete them first or use force delete")
		}
	}
	f.mu.Unlock()
	return f.DeleteOwner(ctx, ownerID)
}

func (f *fakeStore) ForceDeleteOwner(ctx context.Context, ownerID string) error {
	f.mu.Lock()
	removed := 0
	for id, s := range f.staff {
		if s.CreatedBy == ownerID {
			delete(f.staff, id)
			delete(f.users, id)
			removed++
		}
	}
	f.mu.Unlock()
	if removed == 0 {
		return apperr.NotFound("No staff found under this owner.")
	}
	return f.DeleteOwner(ctx, ownerID)
}

func (f *fakeStore) RegisterStaff(_ context.Context, u model.User, s model.Staff) (model.Staff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.addUser(u); err != nil {
		return model.Staff{}, err
	}
	f.staff[s.EmployeeID] = s
	return s, nil
}

func (f *fakeStore) UpdateStaff(_ context.Context, _ model.User, s model.Staff) (model.Staff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.staff[s.EmployeeID]; !ok {
		return model.Staff{}, apperr.ErrNotFound
	}
	f.staff[s.EmployeeID] = s
	return s, nil
}

func (f *fakeStore) DeleteStaff(_ context.Context, employeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.staff[employeeID]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.staff, employeeID)
	delete(f.users, employeeID)
	return nil
}

func (f *fakeStore) GetStaff(_ context.Context, employeeID string) (model.Staff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.staff[employeeID]
	if !ok {
		return model.Staff{}, apperr.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) StaffByLocation(_ context.Context, workLocation string) ([]model.Staff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Staff
	for _, s := range f.staff {
		if s.WorkLocation == workLocation {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateSalon(_ context.Context, s model.Salon) (model.Salon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.salons[s.SalonID] = s
	return s, nil
}

func (f *fakeStore) UpdateSalon(_ context.Context, s model.Salon) (model.Salon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.salons[s.SalonID]
	if !ok || current.CreatedBy != s.CreatedBy {
		return model.Salon{}, apperr.ErrNotFound
	}
	f.salons[s.SalonID] = s
	return s, nil
}

func (f *fakeStore) GetSalon(_ context.Context, salonID string) (model.Salon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.salons[salonID]
	if !ok {
		return model.Salon{}, apperr.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) SalonsByCreator(_ context.Context, createdBy string) ([]model.Salon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Salon
	for _, s := range f.salons {
		if s.CreatedBy == createdBy {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) SalonByLocation(_ context.Context, location string) (model.Salon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return model.Salon{}, f.fail
	}
	for _, s := range f.salons {
		if s.Location == location {
			return s, nil
		}
	}
	return model.Salon{}, apperr.ErrNotFound
}

func (f *fakeStore) CreateBarber(_ context.Context, b model.Barber) (model.Barber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.barbers[b.BarberID] = b
	return b, nil
}

func (f *fakeStore) GetBarber(_ context.Context, barberID string) (model.Barber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.barbers[barberID]
	if !ok {
		return model.Barber{}, apperr.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) GetAvailability(_ context.Context, createdBy string) (model.AvailabilityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[createdBy]
	if !ok {
		return model.AvailabilityRecord{}, apperr.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) InsertAvailability(_ context.Context, rec model.AvailabilityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[rec.CreatedBy]; ok {
		return apperr.ErrConflict
	}
	f.records[rec.CreatedBy] = rec
	return nil
}

func (f *fakeStore) ReplaceAvailability(_ context.Context, rec model.AvailabilityRecord) (model.AvailabilityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.CreatedBy] = rec
	return rec, nil
}

func (f *fakeStore) DeleteAvailability(_ context.Context, createdBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[createdBy]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.records, createdBy)
	return nil
}

type fakeAssigner struct {
	calls []string
	res   distributor.Result
	err   error
}

func (a *fakeAssigner) Assign(_ context.Context, createdBy string) (distributor.Result, error) {
	a.calls = append(a.calls, createdBy)
	return a.res, a.err
}

// monday is the clock every handler test runs at.
var monday = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	mux      *http.ServeMux
	store    *fakeStore
	signer   *auth.Signer
	assigner *fakeAssigner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeStore()
	signer, err := auth.NewSigner("handler-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	assigner := &fakeAssigner{}
	avail := availability.NewService(store, logger, availability.Config{Now: func() time.Time { return monday }})

	mux := http.NewServeMux()
	Set{
		Auth:     NewAuthHandler(store, signer, logger),
		Owner:    NewOwnerHandler(store, logger),
		Staff:    NewStaffHandler(store, logger),
		Salon:    NewSalonHandler(store, logger),
		Barber:   NewBarberHandler(avail, assigner, store, logger),
		Schedule: NewScheduleHandler(avail, logger),
		Customer: NewCustomerHandler(store, logger),
	}.Register(mux, auth.RequireAuth(signer), httpx.WithRateLimit(httpx.NewMemoryRateLimiter(100, time.Minute), logger, httpx.RateLimitOptions{}))
	return &testEnv{mux: mux, store: store, signer: signer, assigner: assigner}
}

func (e *testEnv) token(t *testing.T, userID string, role model.Role) string {
	t.Helper()
	tok, err := e.signer.Issue(userID, string(role), userID+"@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}
