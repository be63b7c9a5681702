package storage

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

const availabilityColumns = `created_by, request, response, notes, metadata, created_at, updated_at`

func scanAvailability(row pgx.Row) (model.AvailabilityRecord, error) {
	var (
		rec                      model.AvailabilityRecord
		request, response, extra []byte
	)
	if err := row.Scan(&rec.CreatedBy, &request, &response, &rec.Notes, &extra, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return model.AvailabilityRecord{}, classify(err)
	}
	if err := json.Unmarshal(request, &rec.Request); err != nil {
		return model.AvailabilityRecord{}, err
	}
	if err := json.Unmarshal(response, &rec.Response); err != nil {
		return model.AvailabilityRecord{}, err
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &rec.Metadata); err != nil {
			return model.AvailabilityRecord{}, err
		}
	}
	return rec, nil
}

func availabilityArgs(rec model.AvailabilityRecord) (request, response, extra []byte, err error) {
	if request, err = json.Marshal(rec.Request); err != nil {
		return nil, nil, nil, err
	}
	groups := rec.Response
	if groups == nil {
		groups = []schedule.LocationGroup{}
	}
	if response, err = json.Marshal(groups); err != nil {
		return nil, nil, nil, err
	}
	if rec.Metadata != nil {
		if extra, err = json.Marshal(rec.Metadata); err != nil {
			return nil, nil, nil, err
		}
	}
	return request, response, extra, nil
}

func availabilityPayload(rec model.AvailabilityRecord) outbox.AvailabilityPayload {
	return outbox.AvailabilityPayload{
		CreatedBy: rec.CreatedBy,
		Locations: rec.Request.Locations,
		Groups:    len(rec.Response),
	}
}

// SalonByLocation returns the earliest created salon at location.
func (r *Repository) SalonByLocation(ctx context.Context, location string) (model.Salon, error) {
	return scanSalon(r.pool.QueryRow(ctx, `
		SELECT `+salonColumns+`
		FROM salons
		WHERE location = $1
		ORDER BY created_at, salon_id
		LIMIT 1
	`, location))
}

func (r *Repository) GetAvailability(ctx context.Context, createdBy string) (model.AvailabilityRecord, error) {
	return getAvailability(ctx, r.pool, createdBy)
}

func getAvailability(ctx context.Context, q querier, createdBy string) (model.AvailabilityRecord, error) {
	return scanAvailability(q.QueryRow(ctx, `
		SELECT `+availabilityColumns+` FROM availability_records WHERE created_by = $1
	`, createdBy))
}

// InsertAvailability fails with a conflict when the creator already has a record.
func (r *Repository) InsertAvailability(ctx context.Context, rec model.AvailabilityRecord) error {
	request, response, extra, err := availabilityArgs(rec)
	if err != nil {
		return err
	}
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_records (created_by, request, response, notes, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rec.CreatedBy, request, response, rec.Notes, extra, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return classify(err)
		}
		return r.emit(ctx, tx, outbox.AggregateAvailability, rec.CreatedBy, outbox.EventAvailabilitySaved, availabilityPayload(rec))
	})
}

// ReplaceAvailability upserts the creator's record in a single statement so
// concurrent callers cannot observe a missing record.
func (r *Repository) ReplaceAvailability(ctx context.Context, rec model.AvailabilityRecord) (model.AvailabilityRecord, error) {
	request, response, extra, err := availabilityArgs(rec)
	if err != nil {
		return model.AvailabilityRecord{}, err
	}
	var out model.AvailabilityRecord
	err = r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanAvailability(tx.QueryRow(ctx, `
			INSERT INTO availability_records (created_by, request, response, notes, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (created_by) DO UPDATE
			SET request = EXCLUDED.request,
			    response = EXCLUDED.response,
			    notes = EXCLUDED.notes,
			    metadata = EXCLUDED.metadata,
			    created_at = EXCLUDED.created_at,
			    updated_at = EXCLUDED.updated_at
			RETURNING `+availabilityColumns,
			rec.CreatedBy, request, response, rec.Notes, extra, rec.CreatedAt, rec.UpdatedAt))
		if err != nil {
			return err
		}
		return r.emit(ctx, tx, outbox.AggregateAvailability, rec.CreatedBy, outbox.EventAvailabilityReplaced, availabilityPayload(out))
	})
	return out, err
}

func (r *Repository) DeleteAvailability(ctx context.Context, createdBy string) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := affected(tx.Exec(ctx, `DELETE FROM availability_records WHERE created_by = $1`, createdBy)); err != nil {
			return err
		}
		return r.emit(ctx, tx, outbox.AggregateAvailability, createdBy, outbox.EventAvailabilityDeleted, outbox.AvailabilityPayload{
			CreatedBy: createdBy,
			Locations: []string{},
		})
	})
}
