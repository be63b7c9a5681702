package availability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the orchestrator needs. Lookups return an error
// matching apperr.ErrNotFound when nothing exists; InsertAvailability returns
// one matching apperr.ErrConflict when the creator already has a record.
type Store interface {
	SalonByLocation(ctx context.Context, location string) (model.Salon, error)
	GetAvailability(ctx context.Context, createdBy string) (model.AvailabilityRecord, error)
	InsertAvailability(ctx context.Context, rec model.AvailabilityRecord) error
	ReplaceAvailability(ctx context.Context, rec model.AvailabilityRecord) (model.AvailabilityRecord, error)
	DeleteAvailability(ctx context.Context, createdBy string) error
}

type Config struct {
	// Location is the calendar the day walk runs in.
	Location *time.Location
	// Concurrency bounds parallel salon lookups per calculation.
	Concurrency int
	Now         func() time.Time
}

type Service struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
	limit  int
	now    func() time.Time
	tracer trace.Tracer
}

func NewService(store Store, logger *slog.Logger, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:  store,
		logger: logger,
		loc:    cfg.Location,
		limit:  cfg.Concurrency,
		now:    cfg.Now,
		tracer: otel.Tracer("salon-service/availability"),
	}
}

// Result echoes the request next to the grouped schedules.
type Result struct {
	Request  schedule.Request         `json:"request"`
	Response []schedule.LocationGroup `json:"response"`
}

// Calculate computes every requested location concurrently and groups the
// results. Locations without a salon or without opening hours are dropped
// from the response; store failures abort the whole calculation.
func (s *Service) Calculate(ctx context.Context, req schedule.Request) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "availability.calculate", trace.WithAttributes(
		attribute.Int("locations", len(req.Locations)),
		attribute.Int("duration_in_days", req.DurationInDays),
	))
	defer span.End()
	start := time.Now()

	today := s.now().In(s.loc)
	results := make([]schedule.LocationSchedule, len(req.Locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, location := range req.Locations {
		g.Go(func() error {
			salon, err := s.store.SalonByLocation(gctx, location)
			if errors.Is(err, apperr.ErrNotFound) {
				results[i] = schedule.ComputeSchedule(location, nil, nil, nil, req.AverageMinutesPerCustomer, req.DurationInDays, today)
				return nil
			}
			if err != nil {
				return apperr.Wrapf(err, "load salon for location %q", location)
			}
			results[i] = schedule.ComputeSchedule(location, salon.OpeningHours, req.Breaks, req.Holidays, req.AverageMinutesPerCustomer, req.DurationInDays, today)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "salon lookup failed")
		metrics.ObserveCalculation("error", time.Since(start).Seconds())
		return Result{}, err
	}

	skipped := 0
	for _, r := range results {
		if r.Error != "" {
			skipped++
			s.logger.Info("location skipped", "location", r.Location, "reason", r.Error)
		}
	}
	metrics.AddSkippedLocations(skipped)

	groups := schedule.Group(results)
	span.SetAttributes(attribute.Int("groups", len(groups)), attribute.Int("skipped", skipped))
	metrics.ObserveCalculation("ok", time.Since(start).Seconds())
	return Result{Request: req, Response: groups}, nil
}

// SaveInput is the body of a create or replace call. A nil Response is
// computed from Request.
type SaveInput struct {
	Request  schedule.Request
	Response []schedule.LocationGroup
	Notes    string
	Metadata map[string]any
}

// Save stores the first record for createdBy. A second Save for the same
// creator fails with a conflict; use Update to replace.
func (s *Service) Save(ctx context.Context, createdBy string, in SaveInput) (model.AvailabilityRecord, error) {
	ctx, span := s.tracer.Start(ctx, "availability.save", trace.WithAttributes(attribute.String("created_by", createdBy)))
	defer span.End()

	rec, err := s.buildRecord(ctx, createdBy, in)
	if err != nil {
		return model.AvailabilityRecord{}, err
	}
	if err := s.store.InsertAvailability(ctx, rec); err != nil {
		metrics.IncAvailabilityWrite("save", outcome(err))
		span.RecordError(err)
		if errors.Is(err, apperr.ErrConflict) {
			return model.AvailabilityRecord{}, apperr.Conflict("Availability already exists for this user; use updateschedule to replace it")
		}
		return model.AvailabilityRecord{}, apperr.Wrapf(err, "insert availability")
	}
	metrics.IncAvailabilityWrite("save", "ok")
	return rec, nil
}

// Update replaces the creator's record in one step, creating it when absent.
// Both timestamps are reset.
func (s *Service) Update(ctx context.Context, createdBy string, in SaveInput) (model.AvailabilityRecord, error) {
	ctx, span := s.tracer.Start(ctx, "availability.update", trace.WithAttributes(attribute.String("created_by", createdBy)))
	defer span.End()

	rec, err := s.buildRecord(ctx, createdBy, in)
	if err != nil {
		return model.AvailabilityRecord{}, err
	}
	stored, err := s.store.ReplaceAvailability(ctx, rec)
	if err != nil {
		metrics.IncAvailabilityWrite("update", outcome(err))
		span.RecordError(err)
		return model.AvailabilityRecord{}, apperr.Wrapf(err, "replace availability")
	}
	metrics.IncAvailabilityWrite("update", "ok")
	return stored, nil
}

func (s *Service) Get(ctx context.Context, createdBy string) (model.AvailabilityRecord, error) {
	rec, err := s.store.GetAvailability(ctx, createdBy)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.AvailabilityRecord{}, apperr.NotFound("Availability record not found")
	}
	return rec, err
}

func (s *Service) Delete(ctx context.Context, createdBy string) error {
	err := s.store.DeleteAvailability(ctx, createdBy)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound("Availability record not found")
	}
	if err == nil {
		metrics.IncAvailabilityWrite("delete", "ok")
	}
	return err
}

func (s *Service) buildRecord(ctx context.Context, createdBy string, in SaveInput) (model.AvailabilityRecord, error) {
	response := in.Response
	if response == nil {
		res, err := s.Calculate(ctx, in.Request)
		if err != nil {
			return model.AvailabilityRecord{}, err
		}
		response = res.Response
	}
	now := s.now().UTC()
	return model.AvailabilityRecord{
		CreatedBy: createdBy,
		Request:   in.Request,
		Response:  response,
		Notes:     in.Notes,
		Metadata:  in.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case err != nil:
		return "error"
	default:
		return "ok"
	}
}
