package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railji/railji-backend/internal/model"
)

type DepartmentRepository interface {
	List(ctx context.Context) ([]model.Department, error)
	GetByID(ctx context.Context, id string) (*model.Department, error)
	Create(ctx context.Context, d *model.Department) error
}

type departmentRepository struct {
	db *pgxpool.Pool
}

func NewDepartmentRepository(db *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{db: db}
}

const departmentColumns = `id, code, name, description, image_url, paper_count,
	material_count, is_active, created_at, updated_at`

func scanDepartment(row pgx.Row, d *model.Department) error {
	return row.Scan(&d.ID, &d.Code, &d.Name, &d.Description, &d.ImageURL, &d.PaperCount,
		&d.MaterialCount, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
}

func (r *departmentRepository) List(ctx context.Context) ([]model.Department, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE is_active ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := make([]model.Department, 0)
	for rows.Next() {
		var d model.Department
		if err := scanDepartment(rows, &d); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*model.Department, error) {
	d := &model.Department{}
	err := scanDepartment(r.db.QueryRow(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id), d)
	if err != nil {
		return nil, notFound("get department", err)
	}
	return d, nil
}

// Create inserts a department. A duplicate code surfaces as the driver's
// unique violation for the caller to classify.
func (r *departmentRepository) Create(ctx context.Context, d *model.Department) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO departments (id, code, name, description, image_url, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		d.ID, d.Code, d.Name, d.Description, d.ImageURL, d.IsActive,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}
