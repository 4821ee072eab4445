package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railji/railji-backend/internal/model"
)

type PaperRepository interface {
	GetByID(ctx context.Context, id string) (*model.Paper, error)
	List(ctx context.Context, f model.PaperFilter) ([]model.Paper, error)
	// ListForDepartment pages the department's own papers plus every general paper.
	ListForDepartment(ctx context.Context, departmentID string, f model.PaperFilter, limit, offset int) ([]model.Paper, int, error)
	// PaperCodes returns the distinct (type, code) pairs visible from a department.
	PaperCodes(ctx context.Context, departmentID string, f model.PaperFilter) ([]model.PaperCodeEntry, error)
	Top(ctx context.Context, n int) ([]model.Paper, error)
	// CreateWithQuestions inserts the paper and its question bank atomically.
	CreateWithQuestions(ctx context.Context, p *model.Paper, questions []model.Question) error
	// Update writes every paper column. A nil questions slice keeps the existing bank.
	Update(ctx context.Context, p *model.Paper, questions []model.Question) error
	Delete(ctx context.Context, id string) error
	// IncrementAttempts adds counts[paperID] to each paper's usersAttempted.
	IncrementAttempts(ctx context.Context, counts map[string]int) error
}

type paperRepository struct {
	db *pgxpool.Pool
}

func NewPaperRepository(db *pgxpool.Pool) PaperRepository {
	return &paperRepository{db: db}
}

var paperColumns = []string{
	"id", "department_id", "paper_code", "paper_type", "name", "description", "year", "shift",
	"duration_minutes", "total_questions", "pass_marks", "pass_percentage", "negative_marking",
	"is_free", "is_new", "rating", "users_attempted", "created_at", "updated_at",
}

func scanPaper(row pgx.Row, p *model.Paper) error {
	return row.Scan(&p.ID, &p.DepartmentID, &p.PaperCode, &p.Type, &p.Name, &p.Description,
		&p.Year, &p.Shift, &p.Duration, &p.TotalQuestions, &p.PassMarks, &p.PassPercentage,
		&p.NegativeMarking, &p.IsFree, &p.IsNew, &p.Rating, &p.UsersAttempted,
		&p.CreatedAt, &p.UpdatedAt)
}

func (r *paperRepository) queryPapers(ctx context.Context, q sq.SelectBuilder) ([]model.Paper, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build paper query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}
	defer rows.Close()

	papers := make([]model.Paper, 0)
	for rows.Next() {
		var p model.Paper
		if err := scanPaper(rows, &p); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// applyFilter narrows q by the non-zero fields of f.
func applyFilter(q sq.SelectBuilder, f model.PaperFilter, withCode bool) sq.SelectBuilder {
	if withCode && f.PaperCode != "" {
		q = q.Where(sq.Eq{"paper_code": f.PaperCode})
	}
	if f.PaperType != "" {
		q = q.Where(sq.Eq{"paper_type": f.PaperType})
	}
	if f.Year != 0 {
		q = q.Where(sq.Eq{"year": f.Year})
	}
	return q
}

func visibleFrom(departmentID string) sq.Or {
	return sq.Or{
		sq.Eq{"paper_type": string(model.PaperTypeGeneral)},
		sq.Eq{"department_id": departmentID},
	}
}

func (r *paperRepository) GetByID(ctx context.Context, id string) (*model.Paper, error) {
	query, args, err := psql.Select(paperColumns...).From("papers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build paper query: %w", err)
	}
	p := &model.Paper{}
	if err := scanPaper(r.db.QueryRow(ctx, query, args...), p); err != nil {
		return nil, notFound("get paper", err)
	}
	return p, nil
}

func (r *paperRepository) List(ctx context.Context, f model.PaperFilter) ([]model.Paper, error) {
	q := psql.Select(paperColumns...).From("papers").OrderBy("year DESC", "created_at DESC")
	return r.queryPapers(ctx, applyFilter(q, f, true))
}

func (r *paperRepository) ListForDepartment(ctx context.Context, departmentID string, f model.PaperFilter, limit, offset int) ([]model.Paper, int, error) {
	// 1. Total count
	countQ := applyFilter(psql.Select("COUNT(*)").From("papers").Where(visibleFrom(departmentID)), f, true)
	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count papers: %w", err)
	}

	// 2. Page
	pageQ := applyFilter(psql.Select(paperColumns...).From("papers").Where(visibleFrom(departmentID)), f, true).
		OrderBy("year DESC", "created_at DESC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	papers, err := r.queryPapers(ctx, pageQ)
	if err != nil {
		return nil, 0, err
	}
	return papers, total, nil
}

func (r *paperRepository) PaperCodes(ctx context.Context, departmentID string, f model.PaperFilter) ([]model.PaperCodeEntry, error) {
	q := psql.Select("paper_type", "paper_code").Distinct().From("papers").
		Where(visibleFrom(departmentID)).
		Where("paper_code IS NOT NULL AND paper_code <> ''")
	query, args, err := applyFilter(q, f, false).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build paper codes query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query paper codes: %w", err)
	}
	defer rows.Close()

	var entries []model.PaperCodeEntry
	for rows.Next() {
		var e model.PaperCodeEntry
		if err := rows.Scan(&e.Type, &e.Code); err != nil {
			return nil, fmt.Errorf("scan paper code: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *paperRepository) Top(ctx context.Context, n int) ([]model.Paper, error) {
	q := psql.Select(paperColumns...).From("papers").
		OrderBy("rating DESC", "users_attempted DESC", "created_at DESC").
		Limit(uint64(n))
	return r.queryPapers(ctx, q)
}

func (r *paperRepository) CreateWithQuestions(ctx context.Context, p *model.Paper, questions []model.Question) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO papers (id, department_id, paper_code, paper_type, name, description, year, shift,
			                     duration_minutes, total_questions, pass_marks, pass_percentage,
			                     negative_marking, is_free, is_new, rating)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 RETURNING users_attempted, created_at, updated_at`,
			p.ID, p.DepartmentID, p.PaperCode, p.Type, p.Name, p.Description, p.Year, p.Shift,
			p.Duration, p.TotalQuestions, p.PassMarks, p.PassPercentage,
			p.NegativeMarking, p.IsFree, p.IsNew, p.Rating,
		).Scan(&p.UsersAttempted, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert paper: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO question_banks (paper_id, paper_code, department_id, questions)
			 VALUES ($1, $2, $3, $4)`,
			p.ID, p.PaperCode, p.DepartmentID, questions,
		); err != nil {
			return fmt.Errorf("insert question bank: %w", err)
		}

		return bumpPaperCount(ctx, tx, p.DepartmentID, 1)
	})
}

func (r *paperRepository) Update(ctx context.Context, p *model.Paper, questions []model.Question) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var oldDept *string
		err := tx.QueryRow(ctx,
			`SELECT department_id FROM papers WHERE id = $1 FOR UPDATE`, p.ID,
		).Scan(&oldDept)
		if err != nil {
			return notFound("lock paper", err)
		}

		err = tx.QueryRow(ctx,
			`UPDATE papers
			 SET department_id = $2, paper_code = $3, paper_type = $4, name = $5, description = $6,
			     year = $7, shift = $8, duration_minutes = $9, total_questions = $10, pass_marks = $11,
			     pass_percentage = $12, negative_marking = $13, is_free = $14, is_new = $15,
			     rating = $16, updated_at = NOW()
			 WHERE id = $1
			 RETURNING users_attempted, created_at, updated_at`,
			p.ID, p.DepartmentID, p.PaperCode, p.Type, p.Name, p.Description,
			p.Year, p.Shift, p.Duration, p.TotalQuestions, p.PassMarks,
			p.PassPercentage, p.NegativeMarking, p.IsFree, p.IsNew, p.Rating,
		).Scan(&p.UsersAttempted, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update paper: %w", err)
		}

		if questions != nil {
			_, err = tx.Exec(ctx,
				`UPDATE question_banks
				 SET paper_code = $2, department_id = $3, questions = $4, updated_at = NOW()
				 WHERE paper_id = $1`,
				p.ID, p.PaperCode, p.DepartmentID, questions)
		} else {
			_, err = tx.Exec(ctx,
				`UPDATE question_banks
				 SET paper_code = $2, department_id = $3, updated_at = NOW()
				 WHERE paper_id = $1`,
				p.ID, p.PaperCode, p.DepartmentID)
		}
		if err != nil {
			return fmt.Errorf("update question bank: %w", err)
		}

		if sameDepartment(oldDept, p.DepartmentID) {
			return nil
		}
		if err := bumpPaperCount(ctx, tx, oldDept, -1); err != nil {
			return err
		}
		return bumpPaperCount(ctx, tx, p.DepartmentID, 1)
	})
}

func (r *paperRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var dept *string
		err := tx.QueryRow(ctx,
			`DELETE FROM papers WHERE id = $1 RETURNING department_id`, id,
		).Scan(&dept)
		if err != nil {
			return notFound("delete paper", err)
		}
		return bumpPaperCount(ctx, tx, dept, -1)
	})
}

func (r *paperRepository) IncrementAttempts(ctx context.Context, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(counts))
	deltas := make([]int32, 0, len(counts))
	for id, n := range counts {
		ids = append(ids, id)
		deltas = append(deltas, int32(n))
	}

	_, err := r.db.Exec(ctx,
		`UPDATE papers AS p
		 SET users_attempted = p.users_attempted + t.n
		 FROM UNNEST($1::text[], $2::int[]) AS t (id, n)
		 WHERE p.id = t.id`,
		ids, deltas)
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	return nil
}

func bumpPaperCount(ctx context.Context, tx pgx.Tx, departmentID *string, delta int) error {
	if departmentID == nil {
		return nil
	}
	_, err := tx.Exec(ctx,
		`UPDATE departments SET paper_count = GREATEST(paper_count + $2, 0), updated_at = NOW()
		 WHERE id = $1`, *departmentID, delta)
	if err != nil {
		return fmt.Errorf("bump paper count: %w", err)
	}
	return nil
}

func sameDepartment(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
