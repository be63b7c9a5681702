package storage

import (
	"context"

	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
)

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}

func insertUser(ctx context.Context, q querier, u model.User) error {
	_, err := q.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role))
	return classify(err)
}

// updateUser changes name and email, and the password hash when one is given.
func updateUser(ctx context.Context, q querier, u model.User) error {
	return classify(affected(q.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, password_hash = COALESCE(NULLIF($4, ''), password_hash)
		WHERE id = $1
	`, u.ID, u.Name, u.Email, u.PasswordHash)))
}

func deleteUser(ctx context.Context, q querier, id string) error {
	return affected(q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
}

func (r *Repository) CreateUser(ctx context.Context, u model.User) error {
	return insertUser(ctx, r.pool, u)
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, classify(err)
}

func (r *Repository) UserByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, classify(err)
}
