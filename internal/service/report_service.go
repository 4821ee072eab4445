package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
)

const attemptsSheet = "Attempts"

var attemptsHeader = []any{
	"Exam ID", "User ID", "Score", "Max Score", "Percentage", "Accuracy",
	"Correct", "Incorrect", "Attempted", "Unattempted", "Passed", "Started At", "Submitted At",
}

// ReportService exports submitted attempts as spreadsheets.
type ReportService struct {
	papers     repository.PaperRepository
	attempts   repository.ExamAttemptRepository
	classifier *apperror.Classifier
	log        zerolog.Logger
}

func NewReportService(
	papers repository.PaperRepository,
	attempts repository.ExamAttemptRepository,
	classifier *apperror.Classifier,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		papers:     papers,
		attempts:   attempts,
		classifier: classifier,
		log:        log.With().Str("component", "report_service").Logger(),
	}
}

// ExportAttempts writes an xlsx workbook of the paper's submitted attempts,
// best score first, to w. It returns the suggested file name.
func (s *ReportService) ExportAttempts(ctx context.Context, paperID string, w io.Writer) (string, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		return "", fail(s.classifier, "export attempts", err, errPaperNotFound)
	}
	attempts, err := s.attempts.ListSubmittedByPaper(ctx, paperID)
	if err != nil {
		return "", fail(s.classifier, "export attempts", err, "")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	if err := writeAttemptsSheet(f, attempts); err != nil {
		return "", s.classifier.Classify("export attempts", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return "", s.classifier.Classify("export attempts", err)
	}

	s.log.Info().Str("paper_id", paper.ID).Int("rows", len(attempts)).Msg("Attempts exported")
	return fmt.Sprintf("%s-attempts.xlsx", paper.ID), nil
}

func writeAttemptsSheet(f *excelize.File, attempts []model.ExamAttempt) error {
	if err := f.SetSheetName(f.GetSheetName(0), attemptsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(attemptsSheet, "A1", &attemptsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, a := range attempts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		submitted := ""
		if a.EndTime != nil {
			submitted = a.EndTime.UTC().Format(time.RFC3339)
		}
		row := []any{
			a.AttemptID, a.UserID, round2(a.Score), a.MaxScore, round2(a.Percentage), round2(a.Accuracy),
			a.CorrectAnswers, a.IncorrectAnswers, a.AttemptedQuestions, a.UnattemptedQuestions,
			a.IsPassed, a.StartTime.UTC().Format(time.RFC3339), submitted,
		}
		if err := f.SetSheetRow(attemptsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}
