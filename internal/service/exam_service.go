package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
)

const (
	errAttemptNotFound = "exam attempt not found"
	errPaperNotFound   = "paper not found"
)

// StatsRecorder is told about every successful submit so per-paper attempt
// counters can be maintained off the request path.
type StatsRecorder interface {
	RecordAttempt(ctx context.Context, paperID string) error
}

// ExamService runs the attempt state machine: in-progress moves to submitted
// exactly once through Submit; timeout and abandoned are set elsewhere.
type ExamService struct {
	attempts   repository.ExamAttemptRepository
	papers     repository.PaperRepository
	banks      *QuestionBankService
	stats      StatsRecorder
	classifier *apperror.Classifier
	now        func() time.Time
	log        zerolog.Logger
}

// NewExamService creates a new ExamService. stats may be nil.
func NewExamService(
	attempts repository.ExamAttemptRepository,
	papers repository.PaperRepository,
	banks *QuestionBankService,
	stats StatsRecorder,
	classifier *apperror.Classifier,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		attempts:   attempts,
		papers:     papers,
		banks:      banks,
		stats:      stats,
		classifier: classifier,
		now:        time.Now,
		log:        log.With().Str("component", "exam_service").Logger(),
	}
}

// Start opens an in-progress attempt and returns its id. Questions are
// fetched separately through the sanitized question read.
func (s *ExamService) Start(ctx context.Context, req *model.StartExamRequest) (*model.StartExamResponse, error) {
	paper, err := s.papers.GetByID(ctx, req.PaperID)
	if err != nil {
		return nil, fail(s.classifier, "start exam", err, errPaperNotFound)
	}

	start := s.now()
	if req.StartTime != nil && !req.StartTime.IsZero() {
		start = *req.StartTime
	}

	attempt := &model.ExamAttempt{
		AttemptID:    uuid.NewString(),
		UserID:       req.UserID,
		PaperID:      paper.ID,
		PaperName:    paper.Name,
		PaperCode:    paper.PaperCode,
		DepartmentID: paper.DepartmentID,
		Responses:    []model.Response{},
		StartTime:    start,
		Status:       model.AttemptInProgress,
		DeviceInfo:   req.DeviceInfo,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fail(s.classifier, "start exam", err, "")
	}

	examEvents.WithLabelValues("started").Inc()
	s.log.Info().
		Str("exam_id", attempt.AttemptID).
		Str("user_id", attempt.UserID).
		Str("paper_id", attempt.PaperID).
		Msg("Exam started")

	return &model.StartExamResponse{AttemptID: attempt.AttemptID}, nil
}

// Submit grades an in-progress attempt and moves it to submitted. The final
// write is conditional on the attempt still being in progress, so of two
// concurrent submits exactly one scores and the other is rejected.
func (s *ExamService) Submit(ctx context.Context, req *model.SubmitExamRequest) (*model.AttemptResult, error) {
	if _, err := uuid.Parse(req.AttemptID); err != nil {
		return nil, s.classifier.Classify("submit exam", &apperror.CastError{Field: "examId", Value: req.AttemptID, Err: err})
	}

	// 1. Attempt, scoped to its owner
	attempt, err := s.attempts.GetForUser(ctx, req.AttemptID, req.UserID)
	if err != nil {
		return nil, fail(s.classifier, "submit exam", err, errAttemptNotFound)
	}

	// 2. Single submission
	if attempt.Status != model.AttemptInProgress {
		examEvents.WithLabelValues("rejected").Inc()
		return nil, apperror.BadRequest("exam already %s", attempt.Status)
	}
	if req.PaperID != "" && req.PaperID != attempt.PaperID {
		return nil, apperror.BadRequest("paperId does not match the exam attempt")
	}

	// 3. Paper policy
	paper, err := s.papers.GetByID(ctx, attempt.PaperID)
	if err != nil {
		return nil, fail(s.classifier, "submit exam", err, errPaperNotFound)
	}

	// 4. Answer key
	key, err := s.banks.AnswerKey(ctx, paper.ID)
	if err != nil {
		return nil, err
	}

	// 5-10. Grade
	responses := req.Responses
	if responses == nil {
		responses = []model.Response{}
	}
	attempted := len(responses)
	if req.AttemptedQuestions != nil {
		attempted = *req.AttemptedQuestions
	}
	total := paper.TotalQuestions
	unattempted := max(total-attempted, 0)
	if req.UnattemptedQuestions != nil {
		unattempted = *req.UnattemptedQuestions
	}

	maxScore := float64(total) * MarkPerQuestion
	sc := Grade(ScoreInput{
		AnswerKey:    key,
		Responses:    responses,
		Attempted:    attempted,
		MaxScore:     maxScore,
		PassingScore: paper.PassMarks,
		Penalty:      paper.NegativeMarking,
	})

	// 11. Conditional commit
	end := s.now()
	sub := &model.Submission{
		Responses:            responses,
		TotalQuestions:       total,
		AttemptedQuestions:   attempted,
		UnattemptedQuestions: unattempted,
		CorrectAnswers:       sc.Correct,
		IncorrectAnswers:     sc.Incorrect,
		Score:                sc.Score,
		MaxScore:             maxScore,
		Percentage:           sc.Percentage,
		Accuracy:             sc.Accuracy,
		PassingScore:         paper.PassMarks,
		NegativeMarking:      paper.NegativeMarking,
		IsPassed:             sc.IsPassed,
		EndTime:              end,
		TimeTaken:            model.NewTimeTaken(end.Sub(attempt.StartTime)),
		Remarks:              req.Remarks,
	}
	ok, err := s.attempts.Submit(ctx, attempt.AttemptID, attempt.UserID, sub)
	if err != nil {
		return nil, s.classifier.Classify("submit exam", err)
	}
	if !ok {
		return nil, s.lostRace(ctx, attempt)
	}

	examEvents.WithLabelValues("submitted").Inc()
	examScores.Observe(sc.Percentage)
	s.recordStats(ctx, paper.ID)

	s.log.Info().
		Str("exam_id", attempt.AttemptID).
		Str("paper_id", paper.ID).
		Int("correct", sc.Correct).
		Int("incorrect", sc.Incorrect).
		Float64("score", sc.Score).
		Bool("passed", sc.IsPassed).
		Msg("Exam submitted")

	// 12. Result
	return resultFromSubmission(attempt.AttemptID, paper.ID, sub), nil
}

// lostRace explains a conditional submit that matched no row: another
// request moved the attempt out of in-progress first.
func (s *ExamService) lostRace(ctx context.Context, attempt *model.ExamAttempt) error {
	examEvents.WithLabelValues("rejected").Inc()
	current, err := s.attempts.GetForUser(ctx, attempt.AttemptID, attempt.UserID)
	if err != nil {
		return fail(s.classifier, "submit exam", err, errAttemptNotFound)
	}
	status := current.Status
	if status == model.AttemptInProgress {
		status = model.AttemptSubmitted
	}
	return apperror.BadRequest("exam already %s", status)
}

func (s *ExamService) recordStats(ctx context.Context, paperID string) {
	if s.stats == nil {
		return
	}
	if err := s.stats.RecordAttempt(ctx, paperID); err != nil {
		s.log.Warn().Err(err).Str("paper_id", paperID).Msg("Failed to record attempt stats")
	}
}

// Result returns the scoring outcome of a finished attempt.
func (s *ExamService) Result(ctx context.Context, attemptID, userID string) (*model.AttemptResult, error) {
	if _, err := uuid.Parse(attemptID); err != nil {
		return nil, s.classifier.Classify("exam result", &apperror.CastError{Field: "examId", Value: attemptID, Err: err})
	}
	a, err := s.attempts.GetForUser(ctx, attemptID, userID)
	if err != nil {
		return nil, fail(s.classifier, "exam result", err, errAttemptNotFound)
	}
	if a.Status == model.AttemptInProgress {
		return nil, apperror.BadRequest("exam is still in progress")
	}
	return resultFromAttempt(a), nil
}

// History pages through a user's attempts, newest first.
func (s *ExamService) History(ctx context.Context, userID string, page model.PageQuery) ([]model.ExamAttempt, model.Pagination, error) {
	attempts, total, err := s.attempts.ListByUser(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Pagination{}, fail(s.classifier, "exam history", err, "")
	}
	return attempts, model.NewPagination(page, total), nil
}

func resultFromSubmission(attemptID, paperID string, sub *model.Submission) *model.AttemptResult {
	end := sub.EndTime
	taken := sub.TimeTaken
	return &model.AttemptResult{
		AttemptID:            attemptID,
		PaperID:              paperID,
		Status:               model.AttemptSubmitted,
		Score:                round2(sub.Score),
		MaxScore:             sub.MaxScore,
		PassingScore:         sub.PassingScore,
		Percentage:           round2(sub.Percentage),
		Accuracy:             round2(sub.Accuracy),
		IsPassed:             sub.IsPassed,
		CorrectAnswers:       sub.CorrectAnswers,
		IncorrectAnswers:     sub.IncorrectAnswers,
		TotalQuestions:       sub.TotalQuestions,
		AttemptedQuestions:   sub.AttemptedQuestions,
		UnattemptedQuestions: sub.UnattemptedQuestions,
		NegativeMarking:      sub.NegativeMarking,
		TimeTaken:            &taken,
		SubmittedAt:          &end,
	}
}

func resultFromAttempt(a *model.ExamAttempt) *model.AttemptResult {
	return &model.AttemptResult{
		AttemptID:            a.AttemptID,
		PaperID:              a.PaperID,
		Status:               a.Status,
		Score:                round2(a.Score),
		MaxScore:             a.MaxScore,
		PassingScore:         a.PassingScore,
		Percentage:           round2(a.Percentage),
		Accuracy:             round2(a.Accuracy),
		IsPassed:             a.IsPassed,
		CorrectAnswers:       a.CorrectAnswers,
		IncorrectAnswers:     a.IncorrectAnswers,
		TotalQuestions:       a.TotalQuestions,
		AttemptedQuestions:   a.AttemptedQuestions,
		UnattemptedQuestions: a.UnattemptedQuestions,
		NegativeMarking:      a.NegativeMarking,
		TimeTaken:            a.TimeTaken,
		SubmittedAt:          a.EndTime,
	}
}
