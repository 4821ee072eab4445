package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railji/railji-backend/internal/model"
)

type MaterialRepository interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]model.Material, error)
	// Create inserts the material and bumps the department's material count.
	Create(ctx context.Context, m *model.Material) error
}

type materialRepository struct {
	db *pgxpool.Pool
}

func NewMaterialRepository(db *pgxpool.Pool) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) ListByDepartment(ctx context.Context, departmentID string) ([]model.Material, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, department_id, title, description, material_type, url, thumbnail_url,
		        duration_seconds, file_size, tags, is_active, view_count, created_at, updated_at
		 FROM materials
		 WHERE department_id = $1 AND is_active
		 ORDER BY created_at DESC`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	materials := make([]model.Material, 0)
	for rows.Next() {
		var m model.Material
		if err := rows.Scan(&m.ID, &m.DepartmentID, &m.Title, &m.Description, &m.Type, &m.URL,
			&m.ThumbnailURL, &m.Duration, &m.FileSize, &m.Tags, &m.IsActive, &m.ViewCount,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *materialRepository) Create(ctx context.Context, m *model.Material) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE departments SET material_count = material_count + 1, updated_at = NOW()
			 WHERE id = $1`, m.DepartmentID)
		if err != nil {
			return fmt.Errorf("bump material count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("department %s: %w", m.DepartmentID, ErrNotFound)
		}

		tags := m.Tags
		if tags == nil {
			tags = []string{}
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO materials (id, department_id, title, description, material_type, url,
			                        thumbnail_url, duration_seconds, file_size, tags, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING created_at, updated_at`,
			m.ID, m.DepartmentID, m.Title, m.Description, m.Type, m.URL,
			m.ThumbnailURL, m.Duration, m.FileSize, tags, m.IsActive,
		).Scan(&m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert material: %w", err)
		}
		return nil
	})
}
