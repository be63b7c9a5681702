package storage

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/outbox"
)

// Tx exposes the reads and writes of one assignment run inside a single
// database transaction.
type Tx struct {
	tx   pgx.Tx
	repo *Repository
}

// InTx runs fn in a read-committed transaction bound to a Tx. Barber rows are
// locked as they are read, so concurrent runs for the same staff serialize.
func (r *Repository) InTx(ctx context.Context, fn func(*Tx) error) error {
	return r.pool.InTxWith(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&Tx{tx: tx, repo: r})
	})
}

func (t *Tx) GetAvailability(ctx context.Context, createdBy string) (model.AvailabilityRecord, error) {
	return getAvailability(ctx, t.tx, createdBy)
}

func (t *Tx) StaffByCreator(ctx context.Context, createdBy string) ([]model.Staff, error) {
	return collectStaff(t.tx.Query(ctx, `
		SELECT `+staffColumns+` FROM staff WHERE created_by = $1 ORDER BY created_at, employee_id
	`, createdBy))
}

// BarberByEmployeeID locks the earliest barber profile of the staff member.
func (t *Tx) BarberByEmployeeID(ctx context.Context, employeeID string) (model.Barber, error) {
	return scanBarber(t.tx.QueryRow(ctx, `
		SELECT `+barberColumns+`
		FROM barbers
		WHERE employee_id = $1
		ORDER BY created_at, barber_id
		LIMIT 1
		FOR UPDATE
	`, employeeID))
}

func (t *Tx) SaveBarberAvailability(ctx context.Context, barberID string, days []model.BarberDay) error {
	body, err := jsonArray(days)
	if err != nil {
		return err
	}
	if err := affected(t.tx.Exec(ctx, `
		UPDATE barbers SET availability = $2, updated_at = now() WHERE barber_id = $1
	`, barberID, body)); err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{"barber_id": barberID, "days": len(days)})
	if err != nil {
		return err
	}
	return t.repo.outbox.Insert(ctx, t.tx, outbox.Event{
		AggregateType: outbox.AggregateBarber,
		AggregateID:   barberID,
		EventType:     outbox.EventBarberAssigned,
		Payload:       payload,
	})
}
