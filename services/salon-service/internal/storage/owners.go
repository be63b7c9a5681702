package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/outbox"
)

const ownerColumns = `owner_id, name, email, phone, address, note, total_revenue, created_at, updated_at`

func scanOwner(row pgx.Row) (model.Owner, error) {
	var o model.Owner
	err := row.Scan(&o.OwnerID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.Note, &o.TotalRevenue, &o.CreatedAt, &o.UpdatedAt)
	return o, classify(err)
}

// RegisterOwner creates the login and the owner profile together.
func (r *Repository) RegisterOwner(ctx context.Context, u model.User, o model.Owner) (model.Owner, error) {
	var out model.Owner
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		var err error
		out, err = scanOwner(tx.QueryRow(ctx, `
			INSERT INTO owners (owner_id, name, email, phone, address, note, total_revenue)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+ownerColumns,
			u.ID, o.Name, o.Email, o.Phone, o.Address, o.Note, o.TotalRevenue))
		if err != nil {
			return err
		}
		return r.emit(ctx, tx, outbox.AggregateAccount, u.ID, outbox.EventOwnerRegistered, map[string]string{
			"owner_id": u.ID,
			"email":    u.Email,
		})
	})
	return out, err
}

func (r *Repository) GetOwner(ctx context.Context, ownerID string) (model.Owner, error) {
	return scanOwner(r.pool.QueryRow(ctx, `SELECT `+ownerColumns+` FROM owners WHERE owner_id = $1`, ownerID))
}

// UpdateOwner rewrites the login and the profile; either missing is NotFound.
func (r *Repository) UpdateOwner(ctx context.Context, u model.User, o model.Owner) (model.Owner, error) {
	var out model.Owner
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := updateUser(ctx, tx, u); err != nil {
			if IsNotFound(err) {
				return apperr.NotFound("User not found")
			}
			return err
		}
		var err error
		out, err = scanOwner(tx.QueryRow(ctx, `
			UPDATE owners
			SET name = $2, email = $3, phone = $4, address = $5, note = $6, total_revenue = $7, updated_at = now()
			WHERE owner_id = $1
			RETURNING `+ownerColumns,
			u.ID, o.Name, o.Email, o.Phone, o.Address, o.Note, o.TotalRevenue))
		if IsNotFound(err) {
			return apperr.NotFound("Owner not found")
		}
		return err
	})
	return out, err
}

// DeleteOwner removes the profile and its login.
func (r *Repository) DeleteOwner(ctx context.Context, ownerID string) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		return deleteOwnerTx(ctx, tx, ownerID)
	})
}

// DeleteOwnerWithoutStaff refuses while any staff member still belongs to the owner.
func (r *Repository) DeleteOwnerWithoutStaff(ctx context.Context, ownerID string) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var n int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM staff WHERE created_by = $1`, ownerID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return apperr.Invalid("Owner still has staff members; delete them first or use force delete")
		}
		return deleteOwnerTx(ctx, tx, ownerID)
	})
}

// ForceDeleteOwner deletes the owner's staff (and their logins), the owner and its login.
func (r *Repository) ForceDeleteOwner(ctx context.Context, ownerID string) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM users
			WHERE id IN (SELECT employee_id FROM staff WHERE created_by = $1)
		`, ownerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("No staff found under this owner.")
		}
		return deleteOwnerTx(ctx, tx, ownerID)
	})
}

func deleteOwnerTx(ctx context.Context, tx pgx.Tx, ownerID string) error {
	if err := affected(tx.Exec(ctx, `DELETE FROM owners WHERE owner_id = $1`, ownerID)); err != nil {
		if IsNotFound(err) {
			return apperr.NotFound("Owner not found")
		}
		return err
	}
	if err := deleteUser(ctx, tx, ownerID); err != nil {
		if IsNotFound(err) {
			return apperr.NotFound("User not found")
		}
		return err
	}
	return nil
}
