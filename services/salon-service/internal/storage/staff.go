package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/outbox"
)

const staffColumns = `employee_id, created_by, name, role, work_location, salary, phone, email,
	availability, experience, specialization, hire_date, performance_rating, created_at, updated_at`

func scanStaff(row pgx.Row) (model.Staff, error) {
	var s model.Staff
	err := row.Scan(&s.EmployeeID, &s.CreatedBy, &s.Name, &s.Role, &s.WorkLocation, &s.Salary, &s.Phone, &s.Email,
		&s.Availability, &s.Experience, &s.Specialization, &s.HireDate, &s.PerformanceRating, &s.CreatedAt, &s.UpdatedAt)
	return s, classify(err)
}

func collectStaff(rows pgx.Rows, err error) ([]model.Staff, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RegisterStaff creates the staff login and profile together.
func (r *Repository) RegisterStaff(ctx context.Context, u model.User, s model.Staff) (model.Staff, error) {
	var out model.Staff
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		var err error
		out, err = scanStaff(tx.QueryRow(ctx, `
			INSERT INTO staff (employee_id, created_by, name, role, work_location, salary, phone, email,
				availability, experience, specialization, hire_date, performance_rating)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING `+staffColumns,
			u.ID, s.CreatedBy, s.Name, s.Role, s.WorkLocation, s.Salary, s.Phone, s.Email,
			s.Availability, s.Experience, s.Specialization, s.HireDate, s.PerformanceRating))
		if err != nil {
			return err
		}
		return r.emit(ctx, tx, outbox.AggregateAccount, u.ID, outbox.EventStaffRegistered, map[string]string{
			"employee_id":   u.ID,
			"created_by":    s.CreatedBy,
			"work_location": s.WorkLocation,
		})
	})
	return out, err
}

func (r *Repository) UpdateStaff(ctx context.Context, u model.User, s model.Staff) (model.Staff, error) {
	var out model.Staff
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := updateUser(ctx, tx, u); err != nil {
			if IsNotFound(err) {
				return apperr.NotFound("User not found")
			}
			return err
		}
		var err error
		out, err = scanStaff(tx.QueryRow(ctx, `
			UPDATE staff
			SET name = $2, role = $3, work_location = $4, salary = $5, phone = $6, email = $7,
				availability = $8, experience = $9, specialization = $10, hire_date = $11,
				performance_rating = $12, updated_at = now()
			WHERE employee_id = $1
			RETURNING `+staffColumns,
			u.ID, s.Name, s.Role, s.WorkLocation, s.Salary, s.Phone, s.Email,
			s.Availability, s.Experience, s.Specialization, s.HireDate, s.PerformanceRating))
		if IsNotFound(err) {
			return apperr.NotFound("Staff not found")
		}
		return err
	})
	return out, err
}

// DeleteStaff removes the login; the profile goes with it through the foreign key.
func (r *Repository) DeleteStaff(ctx context.Context, employeeID string) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := affected(tx.Exec(ctx, `DELETE FROM staff WHERE employee_id = $1`, employeeID)); err != nil {
			if IsNotFound(err) {
				return apperr.NotFound("Staff not found")
			}
			return err
		}
		if err := deleteUser(ctx, tx, employeeID); err != nil {
			if IsNotFound(err) {
				return apperr.NotFound("User not found")
			}
			return err
		}
		return nil
	})
}

func (r *Repository) GetStaff(ctx context.Context, employeeID string) (model.Staff, error) {
	return scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE employee_id = $1`, employeeID))
}

func (r *Repository) StaffByLocation(ctx context.Context, workLocation string) ([]model.Staff, error) {
	return collectStaff(r.pool.Query(ctx, `
		SELECT `+staffColumns+` FROM staff WHERE work_location = $1 ORDER BY created_at, employee_id
	`, workLocation))
}
