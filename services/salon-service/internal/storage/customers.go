package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
)

// RegisterUser creates a login. Customers also get a customer row.
func (r *Repository) RegisterUser(ctx context.Context, u model.User) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		if u.Role != model.RoleCustomer {
			return nil
		}
		_, err := tx.Exec(ctx, `INSERT INTO customers (id, name, email) VALUES ($1, $2, $3)`, u.ID, u.Name, u.Email)
		return classify(err)
	})
}

func (r *Repository) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	var c model.Customer
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM customers WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.Email)
	return c, classify(err)
}

// CreateCustomer inserts a standalone customer record. Email is unique
// across customers.
func (r *Repository) CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO customers (id, name, email) VALUES ($1, $2, $3)`, c.ID, c.Name, c.Email)
	if err != nil {
		return model.Customer{}, classify(err)
	}
	return c, nil
}

func (r *Repository) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
