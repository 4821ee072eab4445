package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railji/railji-backend/internal/model"
)

type QuestionBankRepository interface {
	// GetByPaperID returns the answer-bearing bank. Admin use only.
	GetByPaperID(ctx context.Context, paperID string) (*model.QuestionBank, error)
	// PublicByPaperID returns the bank with every correct option projected out.
	PublicByPaperID(ctx context.Context, paperID string) (*model.PaperQuestions, error)
	// AnswerKey returns only question ids and their correct option.
	AnswerKey(ctx context.Context, paperID string) ([]model.AnswerKeyEntry, error)
}

type questionBankRepository struct {
	db *pgxpool.Pool
}

func NewQuestionBankRepository(db *pgxpool.Pool) QuestionBankRepository {
	return &questionBankRepository{db: db}
}

func (r *questionBankRepository) GetByPaperID(ctx context.Context, paperID string) (*model.QuestionBank, error) {
	b := &model.QuestionBank{}
	err := r.db.QueryRow(ctx,
		`SELECT paper_id, paper_code, department_id, questions, created_at, updated_at
		 FROM question_banks WHERE paper_id = $1`, paperID,
	).Scan(&b.PaperID, &b.PaperCode, &b.DepartmentID, &b.Questions, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, notFound("get question bank", err)
	}
	return b, nil
}

// PublicByPaperID strips "correct" inside the query so the answer never
// leaves the database on this path.
func (r *questionBankRepository) PublicByPaperID(ctx context.Context, paperID string) (*model.PaperQuestions, error) {
	pq := &model.PaperQuestions{}
	err := r.db.QueryRow(ctx,
		`SELECT b.paper_id, b.paper_code, b.department_id,
		        COALESCE((SELECT jsonb_agg(e.q - 'correct' ORDER BY e.ord)
		                  FROM jsonb_array_elements(b.questions) WITH ORDINALITY AS e (q, ord)),
		                 '[]'::jsonb)
		 FROM question_banks b
		 WHERE b.paper_id = $1`, paperID,
	).Scan(&pq.PaperID, &pq.PaperCode, &pq.DepartmentID, &pq.Questions)
	if err != nil {
		return nil, notFound("get paper questions", err)
	}
	return pq, nil
}

func (r *questionBankRepository) AnswerKey(ctx context.Context, paperID string) ([]model.AnswerKeyEntry, error) {
	var key []model.AnswerKeyEntry
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE((SELECT jsonb_agg(jsonb_build_object('questionId', e.q->'id', 'correct', e.q->'correct'))
		                  FROM jsonb_array_elements(b.questions) AS e (q)),
		                 '[]'::jsonb)
		 FROM question_banks b
		 WHERE b.paper_id = $1`, paperID,
	).Scan(&key)
	if err != nil {
		return nil, notFound("get answer key", err)
	}
	return key, nil
}
