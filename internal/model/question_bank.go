package model

import "time"

// MinOptions is the minimum number of options a question must offer.
const MinOptions = 4

// LocalizedText carries English and Hindi renderings of the same text.
type LocalizedText struct {
	En string `json:"en" binding:"required"`
	Hi string `json:"hi,omitempty"`
}

// Question is the answer-bearing form of a question. It must never be
// returned on an end-user read; use Public for that.
type Question struct {
	ID          int             `json:"id" binding:"gte=0"`
	Question    LocalizedText   `json:"question"`
	Options     []LocalizedText `json:"options" binding:"required,min=4,dive"`
	Correct     int             `json:"correct" binding:"gte=0"`
	Explanation *LocalizedText  `json:"explanation,omitempty"`
}

// PublicQuestion is a question without its correct option.
type PublicQuestion struct {
	ID          int             `json:"id"`
	Question    LocalizedText   `json:"question"`
	Options     []LocalizedText `json:"options"`
	Explanation *LocalizedText  `json:"explanation,omitempty"`
}

// Public strips the correct option.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:          q.ID,
		Question:    q.Question,
		Options:     q.Options,
		Explanation: q.Explanation,
	}
}

// QuestionBank holds the ordered questions of one paper.
type QuestionBank struct {
	PaperID      string     `json:"paperId"`
	PaperCode    *string    `json:"paperCode"`
	DepartmentID *string    `json:"departmentId"`
	Questions    []Question `json:"questions"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// PaperQuestions is the sanitized question bank served to candidates.
type PaperQuestions struct {
	PaperID      string           `json:"paperId"`
	PaperCode    *string          `json:"paperCode"`
	DepartmentID *string          `json:"departmentId"`
	Questions    []PublicQuestion `json:"questions"`
}

// VisibleFrom reports whether a department may read this bank. Banks with
// no department belong to general papers and are visible everywhere.
func (p *PaperQuestions) VisibleFrom(departmentID string) bool {
	return p.DepartmentID == nil || *p.DepartmentID == departmentID
}

// AnswerKeyEntry is one row of the answers projection.
type AnswerKeyEntry struct {
	QuestionID int `json:"questionId"`
	Correct    int `json:"correct"`
}

// ValidateQuestions checks ids are unique, every question has at least
// MinOptions options and correct indexes an existing option.
func ValidateQuestions(qs []Question) Violations {
	var v Violations
	if len(qs) == 0 {
		v.add("questions must contain at least 1 item")
		return v
	}

	seen := make(map[int]bool, len(qs))
	for i, q := range qs {
		if seen[q.ID] {
			v.add("questions[%d]: duplicate id %d", i, q.ID)
		}
		seen[q.ID] = true

		if q.Question.En == "" {
			v.add("questions[%d]: question.en is required", i)
		}
		if len(q.Options) < MinOptions {
			v.add("questions[%d]: at least %d options are required", i, MinOptions)
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			v.add("questions[%d]: correct must index one of %d options", i, len(q.Options))
		}
	}
	return v
}
