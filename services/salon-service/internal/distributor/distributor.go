// Package distributor copies a creator's computed open slots onto the
// calendars of the barbers employed by that creator.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tx is the view of the store inside one distributor run.
type Tx interface {
	GetAvailability(ctx context.Context, createdBy string) (model.AvailabilityRecord, error)
	StaffByCreator(ctx context.Context, createdBy string) ([]model.Staff, error)
	// BarberByEmployeeID returns apperr.ErrNotFound when the staff member has no barber profile.
	BarberByEmployeeID(ctx context.Context, employeeID string) (model.Barber, error)
	SaveBarberAvailability(ctx context.Context, barberID string, days []model.BarberDay) error
}

// Store runs fn atomically: every barber write in fn commits together or not at all.
type Store interface {
	Atomic(ctx context.Context, fn func(Tx) error) error
}

type MergePolicy string

const (
	// MergeAppend appends every open slot, so repeated runs duplicate entries.
	MergeAppend MergePolicy = "append"
	// MergeDedupe skips slots whose start and end already exist on that date.
	MergeDedupe MergePolicy = "dedupe"
)

func ParseMergePolicy(v string) (MergePolicy, error) {
	switch MergePolicy(v) {
	case "", MergeAppend:
		return MergeAppend, nil
	case MergeDedupe:
		return MergeDedupe, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", v)
	}
}

type BarberResult struct {
	EmployeeID string   `json:"employeeID"`
	BarberID   string   `json:"barberID,omitempty"`
	Locations  []string `json:"locations,omitempty"`
	SlotsAdded int      `json:"slots_added"`
	Skipped    string   `json:"skipped,omitempty"`
}

type Result struct {
	// Assigned counts barbers whose ledger was written.
	Assigned   int            `json:"assigned"`
	SlotsAdded int            `json:"slots_added"`
	Barbers    []BarberResult `json:"barbers"`
}

type Service struct {
	store  Store
	logger *slog.Logger
	policy MergePolicy
	tracer trace.Tracer
}

func NewService(store Store, logger *slog.Logger, policy MergePolicy) *Service {
	if policy == "" {
		policy = MergeAppend
	}
	return &Service{
		store:  store,
		logger: logger,
		policy: policy,
		tracer: otel.Tracer("salon-service/distributor"),
	}
}

const (
	skipNoBarber   = "no barber profile"
	skipNoLocation = "work location not in schedule"
)

// Assign merges the open slots stored for createdBy into each matching
// barber. Staff are processed in store order and groups in response order.
func (s *Service) Assign(ctx context.Context, createdBy string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "distributor.assign", trace.WithAttributes(
		attribute.String("created_by", createdBy),
		attribute.String("merge_policy", string(s.policy)),
	))
	defer span.End()

	var res Result
	err := s.store.Atomic(ctx, func(tx Tx) error {
		res = Result{Barbers: []BarberResult{}}

		record, err := tx.GetAvailability(ctx, createdBy)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("Availability record not found")
		}
		if err != nil {
			return apperr.Wrapf(err, "load availability")
		}

		staff, err := tx.StaffByCreator(ctx, createdBy)
		if err != nil {
			return apperr.Wrapf(err, "load staff")
		}
		if len(staff) == 0 {
			return apperr.NotFound("No staff members found for the user")
		}

		for _, member := range staff {
			br, err := s.assignOne(ctx, tx, record.Response, member)
			if err != nil {
				return err
			}
			if br.Skipped == "" {
				res.Assigned++
				res.SlotsAdded += br.SlotsAdded
			}
			res.Barbers = append(res.Barbers, br)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assign failed")
		metrics.IncDistributorRun(runOutcome(err))
		return Result{}, err
	}

	span.SetAttributes(attribute.Int("assigned", res.Assigned), attribute.Int("slots_added", res.SlotsAdded))
	metrics.IncDistributorRun("ok")
	metrics.AddAssignedSlots(res.SlotsAdded)
	s.logger.Info("schedules assigned", "created_by", createdBy, "assigned", res.Assigned, "slots_added", res.SlotsAdded)
	return res, nil
}

func (s *Service) assignOne(ctx context.Context, tx Tx, groups []schedule.LocationGroup, member model.Staff) (BarberResult, error) {
	br := BarberResult{EmployeeID: member.EmployeeID}

	barber, err := tx.BarberByEmployeeID(ctx, member.EmployeeID)
	if errors.Is(err, apperr.ErrNotFound) {
		br.Skipped = skipNoBarber
		return br, nil
	}
	if err != nil {
		return br, apperr.Wrapf(err, "load barber for %s", member.EmployeeID)
	}
	br.BarberID = barber.BarberID

	days := barber.Availability
	matched := false
	for _, g := range groups {
		if !slices.Contains(g.Locations, member.WorkLocation) {
			continue
		}
		matched = true
		br.Locations = append(br.Locations, g.Locations...)
		var added int
		days, added = Merge(days, g.Schedule, s.policy)
		br.SlotsAdded += added
	}
	if !matched {
		br.Skipped = skipNoLocation
		return br, nil
	}

	if err := tx.SaveBarberAvailability(ctx, barber.BarberID, days); err != nil {
		return br, apperr.Wrapf(err, "save barber %s", barber.BarberID)
	}
	return br, nil
}

// Merge folds the non-break slots of a schedule into a barber ledger and
// reports how many entries were added. Dates already present gain entries;
// other dates are appended as new days, even when they carry no open slot.
func Merge(days []model.BarberDay, sched []schedule.DaySchedule, policy MergePolicy) ([]model.BarberDay, int) {
	out := slices.Clone(days)
	added := 0
	for _, ds := range sched {
		entries := openEntries(ds.Slots)

		idx := slices.IndexFunc(out, func(d model.BarberDay) bool { return d.Date == ds.Date })
		if idx < 0 {
			if policy == MergeDedupe {
				entries = dedupe(nil, entries)
			}
			out = append(out, model.BarberDay{Date: ds.Date, Entries: entries})
			added += len(entries)
			continue
		}

		if policy == MergeDedupe {
			entries = dedupe(out[idx].Entries, entries)
		}
		day := out[idx]
		day.Entries = append(slices.Clone(day.Entries), entries...)
		out[idx] = day
		added += len(entries)
	}
	return out, added
}

func openEntries(slots []schedule.Slot) []model.BarberEntry {
	entries := make([]model.BarberEntry, 0, len(slots))
	for _, slot := range slots {
		if slot.IsBreak {
			continue
		}
		entries = append(entries, model.OpenEntry(slot.Start, slot.End))
	}
	return entries
}

type slotKey struct{ start, end string }

func dedupe(existing, incoming []model.BarberEntry) []model.BarberEntry {
	seen := make(map[slotKey]bool, len(existing)+len(incoming))
	for _, e := range existing {
		seen[slotKey{e.StartTime, e.EndTime}] = true
	}
	out := incoming[:0:0]
	for _, e := range incoming {
		k := slotKey{e.StartTime, e.EndTime}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

func runOutcome(err error) string {
	if errors.Is(err, apperr.ErrNotFound) {
		return "not_found"
	}
	return "error"
}
