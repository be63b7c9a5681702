package availability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

type memStore struct {
	mu        sync.Mutex
	salons    map[string]model.Salon
	records   map[string]model.AvailabilityRecord
	salonErr  error
	lookups   int
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{salons: map[string]model.Salon{}, records: map[string]model.AvailabilityRecord{}}
}

func (m *memStore) SalonByLocation(_ context.Context, location string) (model.Salon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.salonErr != nil {
		return model.Salon{}, m.salonErr
	}
	s, ok := m.salons[location]
	if !ok {
		return model.Salon{}, apperr.ErrNotFound
	}
	return s, nil
}

func (m *memStore) GetAvailability(_ context.Context, createdBy string) (model.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[createdBy]
	if !ok {
		return model.AvailabilityRecord{}, apperr.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) InsertAvailability(_ context.Context, rec model.AvailabilityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.records[rec.CreatedBy]; ok {
		return apperr.ErrConflict
	}
	m.records[rec.CreatedBy] = rec
	return nil
}

func (m *memStore) ReplaceAvailability(_ context.Context, rec model.AvailabilityRecord) (model.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.CreatedBy] = rec
	return rec, nil
}

func (m *memStore) DeleteAvailability(_ context.Context, createdBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[createdBy]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.records, createdBy)
	return nil
}

func weekdays(from, to string) []schedule.OpeningHours {
	var out []schedule.OpeningHours
	for _, d := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"} {
		out = append(out, schedule.OpeningHours{Day: d, From: from, To: to})
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(store Store, c *clock) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{
		Location:    time.UTC,
		Concurrency: 2,
		Now:         c.now,
	})
}

func seededStore() *memStore {
	store := newMemStore()
	store.salons["north"] = model.Salon{Location: "north", OpeningHours: weekdays("09:00", "10:00")}
	store.salons["south"] = model.Salon{Location: "south", OpeningHours: weekdays("09:00", "10:00")}
	store.salons["east"] = model.Salon{Location: "east", OpeningHours: weekdays("12:00", "13:00")}
	store.salons["empty"] = model.Salon{Location: "empty"}
	return store
}

func TestCalculateGroupsAndKeepsOrder(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, &clock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)})

	req := schedule.Request{
		AverageMinutesPerCustomer: 30,
		Locations:                 []string{"east", "north", "ghost", "empty", "south"},
		DurationInDays:            2,
	}
	res, err := svc.Calculate(context.Background(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(res.Response) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(res.Response), res.Response)
	}
	if got := res.Response[0].Locations; len(got) != 1 || got[0] != "east" {
		t.Fatalf("expected east first, got %v", got)
	}
	if got := res.Response[1].Locations; len(got) != 2 || got[0] != "north" || got[1] != "south" {
		t.Fatalf("expected [north south], got %v", got)
	}
	if res.Request.DurationInDays != 2 || len(res.Request.Locations) != 5 {
		t.Fatalf("request not echoed: %+v", res.Request)
	}
	if store.lookups != 5 {
		t.Fatalf("expected 5 salon lookups, got %d", store.lookups)
	}
}

func TestCalculateStoreFailureAborts(t *testing.T) {
	store := seededStore()
	store.salonErr = errors.New("connection reset")
	svc := newTestService(store, &clock{t: time.Now()})

	_, err := svc.Calculate(context.Background(), schedule.Request{AverageMinutesPerCustomer: 30, Locations: []string{"north"}, DurationInDays: 1})
	if err == nil || errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
}

func TestSaveComputesMissingResponseAndRejectsDuplicate(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, &clock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)})
	req := schedule.Request{AverageMinutesPerCustomer: 30, Locations: []string{"north"}, DurationInDays: 1}

	rec, err := svc.Save(context.Background(), "owner-1", SaveInput{Request: req, Notes: "first"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(rec.Response) != 1 || len(rec.Response[0].Schedule[0].Slots) != 2 {
		t.Fatalf("expected computed response, got %+v", rec.Response)
	}

	_, err = svc.Save(context.Background(), "owner-1", SaveInput{Request: req})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSaveKeepsProvidedResponse(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, &clock{t: time.Now()})
	provided := []schedule.LocationGroup{}

	rec, err := svc.Save(context.Background(), "owner-2", SaveInput{
		Request:  schedule.Request{AverageMinutesPerCustomer: 30, Locations: []string{"north"}, DurationInDays: 1},
		Response: provided,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.Response == nil || len(rec.Response) != 0 {
		t.Fatalf("expected provided empty response, got %+v", rec.Response)
	}
	if store.lookups != 0 {
		t.Fatalf("expected no calculation, got %d lookups", store.lookups)
	}
}

func TestUpdateReplacesAndRefreshesCreatedAt(t *testing.T) {
	store := seededStore()
	c := &clock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(store, c)
	req := schedule.Request{AverageMinutesPerCustomer: 30, Locations: []string{"north"}, DurationInDays: 1}

	if _, err := svc.Save(context.Background(), "owner-1", SaveInput{Request: req, Notes: "v1", Metadata: map[string]any{"app": "1.0"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c.t = c.t.Add(48 * time.Hour)
	req.AverageMinutesPerCustomer = 60
	updated, err := svc.Update(context.Background(), "owner-1", SaveInput{Request: req, Notes: "v2"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(store.records))
	}
	if !updated.CreatedAt.Equal(c.t) || !updated.UpdatedAt.Equal(c.t) {
		t.Fatalf("expected refreshed timestamps, got %s / %s", updated.CreatedAt, updated.UpdatedAt)
	}
	if updated.Notes != "v2" || updated.Metadata != nil {
		t.Fatalf("expected wholesale replacement, got %+v", updated)
	}
	if len(updated.Response[0].Schedule[0].Slots) != 1 {
		t.Fatalf("expected recomputed single 60 minute slot, got %+v", updated.Response)
	}
}

func TestUpdateCreatesWhenAbsent(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, &clock{t: time.Now()})
	if _, err := svc.Update(context.Background(), "owner-9", SaveInput{Request: schedule.Request{AverageMinutesPerCustomer: 30, Locations: []string{"north"}}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := store.records["owner-9"]; !ok {
		t.Fatal("expected record to be created")
	}
}

func TestGetAndDeleteNotFound(t *testing.T) {
	svc := newTestService(newMemStore(), &clock{t: time.Now()})
	if _, err := svc.Get(context.Background(), "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(context.Background(), "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
