package storage

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
)

const barberColumns = `barber_id, employee_id, salon_id, created_by, name, notes, rating, active_status,
	tips, availability, created_at, updated_at`

func scanBarber(row pgx.Row) (model.Barber, error) {
	var (
		b           model.Barber
		tips, avail []byte
	)
	err := row.Scan(&b.BarberID, &b.EmployeeID, &b.SalonID, &b.CreatedBy, &b.Name, &b.Notes, &b.Rating,
		&b.ActiveStatus, &tips, &avail, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Barber{}, classify(err)
	}
	if err := json.Unmarshal(tips, &b.Tips); err != nil {
		return model.Barber{}, err
	}
	if err := json.Unmarshal(avail, &b.Availability); err != nil {
		return model.Barber{}, err
	}
	return b, nil
}

func (r *Repository) CreateBarber(ctx context.Context, b model.Barber) (model.Barber, error) {
	tips, err := jsonArray(b.Tips)
	if err != nil {
		return model.Barber{}, err
	}
	avail, err := jsonArray(b.Availability)
	if err != nil {
		return model.Barber{}, err
	}
	return scanBarber(r.pool.QueryRow(ctx, `
		INSERT INTO barbers (barber_id, employee_id, salon_id, created_by, name, notes, rating, active_status, tips, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+barberColumns,
		b.BarberID, b.EmployeeID, b.SalonID, b.CreatedBy, b.Name, b.Notes, b.Rating, b.ActiveStatus, tips, avail))
}

func (r *Repository) GetBarber(ctx context.Context, barberID string) (model.Barber, error) {
	return scanBarber(r.pool.QueryRow(ctx, `SELECT `+barberColumns+` FROM barbers WHERE barber_id = $1`, barberID))
}
