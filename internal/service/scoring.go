package service

import (
	"math"

	"github.com/railji/railji-backend/internal/model"
)

// MarkPerQuestion is the fixed credit for one correct answer.
const MarkPerQuestion = 1.0

// ScoreInput is what one submission is graded with.
type ScoreInput struct {
	AnswerKey []model.AnswerKeyEntry
	Responses []model.Response
	// Attempted is the client reported number of answered questions.
	Attempted    int
	MaxScore     float64
	PassingScore float64
	Penalty      float64
}

// Scorecard is the graded outcome, at full precision.
type Scorecard struct {
	Correct    int
	Incorrect  int
	Score      float64
	Percentage float64
	Accuracy   float64
	IsPassed   bool
}

// Grade scores a submission: one mark per correct answer minus Penalty per
// incorrect answer, floored at zero. A response counts as correct only when
// its question is in the key and its selected option matches; responses for
// unknown questions are ignored. Each question is credited at most once.
//
// Incorrect is derived from the reported attempted count rather than from
// the responses, and never goes below zero.
func Grade(in ScoreInput) Scorecard {
	key := make(map[int]int, len(in.AnswerKey))
	for _, e := range in.AnswerKey {
		key[e.QuestionID] = e.Correct
	}

	var sc Scorecard
	seen := make(map[int]bool, len(in.Responses))
	for _, r := range in.Responses {
		if r.SelectedOption == nil || seen[r.QuestionID] {
			continue
		}
		seen[r.QuestionID] = true
		if correct, ok := key[r.QuestionID]; ok && *r.SelectedOption == correct {
			sc.Correct++
		}
	}

	sc.Incorrect = max(in.Attempted-sc.Correct, 0)
	sc.Score = math.Max(0, float64(sc.Correct)*MarkPerQuestion-float64(sc.Incorrect)*in.Penalty)

	if in.MaxScore > 0 {
		sc.Percentage = 100 * sc.Score / in.MaxScore
	}
	if in.Attempted > 0 {
		sc.Accuracy = 100 * float64(sc.Correct) / float64(in.Attempted)
	}
	sc.IsPassed = sc.Score >= in.PassingScore
	return sc
}

// round2 rounds to two decimal places for presentation.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
