package distributor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"testing"

	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

type memStore struct {
	records map[string]model.AvailabilityRecord
	staff   []model.Staff
	barbers map[string]model.Barber // by employee id
	failOn  string                  // barber id whose save fails
	commits int
}

type memTx struct {
	s       *memStore
	barbers map[string]model.Barber
}

func (m *memStore) Atomic(ctx context.Context, fn func(Tx) error) error {
	tx := &memTx{s: m, barbers: maps.Clone(m.barbers)}
	if err := fn(tx); err != nil {
		return err
	}
	m.barbers = tx.barbers
	m.commits++
	return nil
}

func (t *memTx) GetAvailability(_ context.Context, createdBy string) (model.AvailabilityRecord, error) {
	rec, ok := t.s.records[createdBy]
	if !ok {
		return model.AvailabilityRecord{}, apperr.ErrNotFound
	}
	return rec, nil
}

func (t *memTx) StaffByCreator(_ context.Context, createdBy string) ([]model.Staff, error) {
	var out []model.Staff
	for _, s := range t.s.staff {
		if s.CreatedBy == createdBy {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *memTx) BarberByEmployeeID(_ context.Context, employeeID string) (model.Barber, error) {
	b, ok := t.barbers[employeeID]
	if !ok {
		return model.Barber{}, apperr.ErrNotFound
	}
	return b, nil
}

func (t *memTx) SaveBarberAvailability(_ context.Context, barberID string, days []model.BarberDay) error {
	if barberID == t.s.failOn {
		return errors.New("write failed")
	}
	for k, b := range t.barbers {
		if b.BarberID == barberID {
			b.Availability = days
			t.barbers[k] = b
			return nil
		}
	}
	return apperr.ErrNotFound
}

func sampleGroups() []schedule.LocationGroup {
	return []schedule.LocationGroup{
		{
			Locations: []string{"north", "south"},
			Schedule: []schedule.DaySchedule{
				{Date: "2026-01-05", Slots: []schedule.Slot{
					{Start: "09:00", End: "09:30"},
					{Start: "09:30", End: "10:00", IsBreak: true, Type: "lunch"},
					{Start: "10:00", End: "10:30"},
				}},
				{Date: "2026-01-06", Holiday: &schedule.HolidayMark{Reason: "Inventory"}},
			},
		},
		{
			Locations: []string{"east"},
			Schedule: []schedule.DaySchedule{
				{Date: "2026-01-05", Slots: []schedule.Slot{{Start: "12:00", End: "12:30"}}},
			},
		},
	}
}

func seeded() *memStore {
	return &memStore{
		records: map[string]model.AvailabilityRecord{
			"owner-1": {CreatedBy: "owner-1", Response: sampleGroups()},
		},
		staff: []model.Staff{
			{EmployeeID: "staff-a", CreatedBy: "owner-1", WorkLocation: "north"},
			{EmployeeID: "staff-b", CreatedBy: "owner-1", WorkLocation: "east"},
			{EmployeeID: "staff-c", CreatedBy: "owner-1", WorkLocation: "north"},
			{EmployeeID: "staff-d", CreatedBy: "owner-1", WorkLocation: "west"},
			{EmployeeID: "staff-x", CreatedBy: "owner-2", WorkLocation: "north"},
		},
		barbers: map[string]model.Barber{
			"staff-a": {BarberID: "barber-a", EmployeeID: "staff-a"},
			"staff-b": {BarberID: "barber-b", EmployeeID: "staff-b", Availability: []model.BarberDay{
				{Date: "2026-01-05", Entries: []model.BarberEntry{{StartTime: "08:00", EndTime: "08:30", TaskName: []string{"Cut"}, ReservedStatus: model.StatusBooked}}},
			}},
			"staff-d": {BarberID: "barber-d", EmployeeID: "staff-d"},
			"staff-x": {BarberID: "barber-x", EmployeeID: "staff-x"},
		},
	}
}

func newService(store Store, policy MergePolicy) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)), policy)
}

func TestAssignMergesOpenSlots(t *testing.T) {
	store := seeded()
	res, err := newService(store, MergeAppend).Assign(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Assigned != 2 || res.SlotsAdded != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Barbers) != 4 || res.Barbers[2].Skipped != skipNoBarber || res.Barbers[3].Skipped != skipNoLocation {
		t.Fatalf("unexpected barber results %+v", res.Barbers)
	}

	a := store.barbers["staff-a"].Availability
	if len(a) != 2 || a[0].Date != "2026-01-05" || len(a[0].Entries) != 2 {
		t.Fatalf("unexpected ledger for barber-a: %+v", a)
	}
	if a[1].Date != "2026-01-06" || len(a[1].Entries) != 0 {
		t.Fatalf("holiday date should be present without entries: %+v", a[1])
	}
	e := a[0].Entries[1]
	if e.StartTime != "10:00" || e.EndTime != "10:30" || e.ReservedStatus != model.StatusAvailable || len(e.TaskName) != 0 {
		t.Fatalf("unexpected entry %+v", e)
	}

	b := store.barbers["staff-b"].Availability
	if len(b) != 1 || len(b[0].Entries) != 2 || b[0].Entries[0].ReservedStatus != model.StatusBooked {
		t.Fatalf("existing entries must be kept and new ones appended: %+v", b)
	}
	if store.barbers["staff-x"].Availability != nil {
		t.Fatal("barber of another creator must not be touched")
	}
	if store.barbers["staff-d"].Availability != nil {
		t.Fatal("barber outside scheduled locations must not be touched")
	}
}

func TestAssignTwiceAppendsDuplicates(t *testing.T) {
	store := seeded()
	svc := newService(store, MergeAppend)
	for i := 0; i < 2; i++ {
		if _, err := svc.Assign(context.Background(), "owner-1"); err != nil {
			t.Fatalf("Assign #%d: %v", i+1, err)
		}
	}
	if got := len(store.barbers["staff-a"].Availability[0].Entries); got != 4 {
		t.Fatalf("expected 4 entries after two runs, got %d", got)
	}
}

func TestAssignTwiceWithDedupeIsIdempotent(t *testing.T) {
	store := seeded()
	svc := newService(store, MergeDedupe)
	first, err := svc.Assign(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	second, err := svc.Assign(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if first.SlotsAdded != 3 || second.SlotsAdded != 0 {
		t.Fatalf("expected 3 then 0 slots, got %d then %d", first.SlotsAdded, second.SlotsAdded)
	}
	if got := len(store.barbers["staff-a"].Availability[0].Entries); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
}

func TestAssignNotFoundGates(t *testing.T) {
	store := seeded()
	svc := newService(store, MergeAppend)

	_, err := svc.Assign(context.Background(), "owner-unknown")
	if !errors.Is(err, apperr.ErrNotFound) || apperr.Message(err, "") != "Availability record not found" {
		t.Fatalf("expected availability not found, got %v", err)
	}

	store.records["owner-3"] = model.AvailabilityRecord{CreatedBy: "owner-3", Response: sampleGroups()}
	_, err = svc.Assign(context.Background(), "owner-3")
	if !errors.Is(err, apperr.ErrNotFound) || apperr.Message(err, "") != "No staff members found for the user" {
		t.Fatalf("expected staff not found, got %v", err)
	}
}

func TestAssignRollsBackOnFailure(t *testing.T) {
	store := seeded()
	store.failOn = "barber-b"
	_, err := newService(store, MergeAppend).Assign(context.Background(), "owner-1")
	if err == nil {
		t.Fatal("expected failure")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if store.barbers["staff-a"].Availability != nil {
		t.Fatal("barber-a was saved before the failure and must be rolled back")
	}
	if store.commits != 0 {
		t.Fatalf("expected no commit, got %d", store.commits)
	}
}

func TestMergeDoesNotAliasInput(t *testing.T) {
	orig := []model.BarberDay{{Date: "2026-01-05", Entries: []model.BarberEntry{model.OpenEntry("08:00", "08:30")}}}
	merged, added := Merge(orig, sampleGroups()[0].Schedule, MergeAppend)
	if added != 2 || len(merged[0].Entries) != 3 {
		t.Fatalf("unexpected merge %+v (added %d)", merged, added)
	}
	if len(orig[0].Entries) != 1 {
		t.Fatal("input ledger must not be modified")
	}
}

func TestParseMergePolicy(t *testing.T) {
	if p, err := ParseMergePolicy(""); err != nil || p != MergeAppend {
		t.Fatalf("default policy = %q, %v", p, err)
	}
	if p, err := ParseMergePolicy("dedupe"); err != nil || p != MergeDedupe {
		t.Fatalf("dedupe policy = %q, %v", p, err)
	}
	if _, err := ParseMergePolicy("replace"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
