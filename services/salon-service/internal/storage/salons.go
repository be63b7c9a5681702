package storage

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
)

const salonColumns = `salon_id, created_by, name, gallery, rating, total_revenue, services_offered,
	address, opening_hours, location, photo, category, is_open, created_at, updated_at`

func scanSalon(row pgx.Row) (model.Salon, error) {
	var (
		s                        model.Salon
		gallery, services, hours []byte
	)
	err := row.Scan(&s.SalonID, &s.CreatedBy, &s.Name, &gallery, &s.Rating, &s.TotalRevenue, &services,
		&s.Address, &hours, &s.Location, &s.Photo, &s.Category, &s.IsOpen, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Salon{}, classify(err)
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{{gallery, &s.Gallery}, {services, &s.ServicesOffered}, {hours, &s.OpeningHours}} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return model.Salon{}, err
		}
	}
	return s, nil
}

func salonJSON(s model.Salon) (gallery, services, hours []byte, err error) {
	if gallery, err = jsonArray(s.Gallery); err != nil {
		return
	}
	if services, err = jsonArray(s.ServicesOffered); err != nil {
		return
	}
	hours, err = jsonArray(s.OpeningHours)
	return
}

// jsonArray encodes a nil slice as [] rather than null.
func jsonArray[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

func (r *Repository) CreateSalon(ctx context.Context, s model.Salon) (model.Salon, error) {
	gallery, services, hours, err := salonJSON(s)
	if err != nil {
		return model.Salon{}, err
	}
	return scanSalon(r.pool.QueryRow(ctx, `
		INSERT INTO salons (salon_id, created_by, name, gallery, rating, total_revenue, services_offered,
			address, opening_hours, location, photo, category, is_open)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+salonColumns,
		s.SalonID, s.CreatedBy, s.Name, gallery, s.Rating, s.TotalRevenue, services,
		s.Address, hours, s.Location, s.Photo, s.Category, s.IsOpen))
}

// UpdateSalon only touches a salon owned by s.CreatedBy.
func (r *Repository) UpdateSalon(ctx context.Context, s model.Salon) (model.Salon, error) {
	gallery, services, hours, err := salonJSON(s)
	if err != nil {
		return model.Salon{}, err
	}
	return scanSalon(r.pool.QueryRow(ctx, `
		UPDATE salons
		SET name = $3, gallery = $4, rating = $5, total_revenue = $6, services_offered = $7,
			address = $8, opening_hours = $9, location = $10, photo = $11, category = $12,
			is_open = $13, updated_at = now()
		WHERE salon_id = $1 AND created_by = $2
		RETURNING `+salonColumns,
		s.SalonID, s.CreatedBy, s.Name, gallery, s.Rating, s.TotalRevenue, services,
		s.Address, hours, s.Location, s.Photo, s.Category, s.IsOpen))
}

func (r *Repository) GetSalon(ctx context.Context, salonID string) (model.Salon, error) {
	return scanSalon(r.pool.QueryRow(ctx, `SELECT `+salonColumns+` FROM salons WHERE salon_id = $1`, salonID))
}

func (r *Repository) SalonsByCreator(ctx context.Context, createdBy string) ([]model.Salon, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+salonColumns+` FROM salons WHERE created_by = $1 ORDER BY created_at
	`, createdBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Salon
	for rows.Next() {
		s, err := scanSalon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
