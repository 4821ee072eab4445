package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railji/railji-backend/internal/model"
)

type ExamAttemptRepository interface {
	Create(ctx context.Context, a *model.ExamAttempt) error
	GetForUser(ctx context.Context, attemptID, userID string) (*model.ExamAttempt, error)
	// Submit writes s and moves the attempt to submitted only if it is still
	// in progress. It reports whether this call performed the transition.
	Submit(ctx context.Context, attemptID, userID string, s *model.Submission) (bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.ExamAttempt, int, error)
	ListSubmittedByPaper(ctx context.Context, paperID string) ([]model.ExamAttempt, error)
	// ExpireStale moves in-progress attempts whose paper duration plus grace
	// has elapsed at now to timeout.
	ExpireStale(ctx context.Context, now time.Time, grace time.Duration) (int64, error)
}

type examAttemptRepository struct {
	db *pgxpool.Pool
}

func NewExamAttemptRepository(db *pgxpool.Pool) ExamAttemptRepository {
	return &examAttemptRepository{db: db}
}

const attemptColumns = `attempt_id, user_id, paper_id, paper_name, paper_code, department_id,
	responses, total_questions, attempted_questions, unattempted_questions, correct_answers,
	incorrect_answers, score, max_score, percentage, accuracy, passing_score, negative_marking,
	is_passed, start_time, end_time, time_taken, status, device_info, remarks, created_at, updated_at`

func scanAttempt(row pgx.Row, a *model.ExamAttempt) error {
	return row.Scan(&a.AttemptID, &a.UserID, &a.PaperID, &a.PaperName, &a.PaperCode, &a.DepartmentID,
		&a.Responses, &a.TotalQuestions, &a.AttemptedQuestions, &a.UnattemptedQuestions, &a.CorrectAnswers,
		&a.IncorrectAnswers, &a.Score, &a.MaxScore, &a.Percentage, &a.Accuracy, &a.PassingScore,
		&a.NegativeMarking, &a.IsPassed, &a.StartTime, &a.EndTime, &a.TimeTaken, &a.Status,
		&a.DeviceInfo, &a.Remarks, &a.CreatedAt, &a.UpdatedAt)
}

func (r *examAttemptRepository) Create(ctx context.Context, a *model.ExamAttempt) error {
	responses := a.Responses
	if responses == nil {
		responses = []model.Response{}
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO exam_attempts (attempt_id, user_id, paper_id, paper_name, paper_code, department_id,
		                            responses, start_time, status, device_info)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		a.AttemptID, a.UserID, a.PaperID, a.PaperName, a.PaperCode, a.DepartmentID,
		responses, a.StartTime, a.Status, a.DeviceInfo,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert exam attempt: %w", err)
	}
	return nil
}

func (r *examAttemptRepository) GetForUser(ctx context.Context, attemptID, userID string) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	err := scanAttempt(r.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE attempt_id = $1 AND user_id = $2`,
		attemptID, userID), a)
	if err != nil {
		return nil, notFound("get exam attempt", err)
	}
	return a, nil
}

// Submit is a single conditional UPDATE, so two concurrent submits for the
// same attempt cannot both score it.
func (r *examAttemptRepository) Submit(ctx context.Context, attemptID, userID string, s *model.Submission) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE exam_attempts
		 SET responses = $3, total_questions = $4, attempted_questions = $5, unattempted_questions = $6,
		     correct_answers = $7, incorrect_answers = $8, score = $9, max_score = $10,
		     percentage = $11, accuracy = $12, passing_score = $13, negative_marking = $14,
		     is_passed = $15, end_time = $16, time_taken = $17, remarks = $18,
		     status = 'submitted', updated_at = NOW()
		 WHERE attempt_id = $1 AND user_id = $2 AND status = 'in-progress'`,
		attemptID, userID, s.Responses, s.TotalQuestions, s.AttemptedQuestions, s.UnattemptedQuestions,
		s.CorrectAnswers, s.IncorrectAnswers, s.Score, s.MaxScore,
		s.Percentage, s.Accuracy, s.PassingScore, s.NegativeMarking,
		s.IsPassed, s.EndTime, s.TimeTaken, s.Remarks,
	)
	if err != nil {
		return false, fmt.Errorf("submit exam attempt: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *examAttemptRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.ExamAttempt, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count exam attempts: %w", err)
	}

	attempts, err := r.query(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE user_id = $1
		 ORDER BY start_time DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (r *examAttemptRepository) ListSubmittedByPaper(ctx context.Context, paperID string) ([]model.ExamAttempt, error) {
	return r.query(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE paper_id = $1 AND status = 'submitted'
		 ORDER BY score DESC, end_time ASC`, paperID)
}

func (r *examAttemptRepository) ExpireStale(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE exam_attempts AS a
		 SET status = 'timeout', end_time = $1, updated_at = NOW()
		 FROM papers AS p
		 WHERE a.paper_id = p.id
		   AND a.status = 'in-progress'
		   AND a.start_time + make_interval(mins => p.duration_minutes) + make_interval(secs => $2) < $1`,
		now, grace.Seconds())
	if err != nil {
		return 0, fmt.Errorf("expire stale attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *examAttemptRepository) query(ctx context.Context, sql string, args ...any) ([]model.ExamAttempt, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query exam attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]model.ExamAttempt, 0)
	for rows.Next() {
		var a model.ExamAttempt
		if err := scanAttempt(rows, &a); err != nil {
			return nil, fmt.Errorf("scan exam attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
