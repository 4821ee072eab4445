package model

import "time"

// AttemptStatus enumerates exam attempt states. in-progress is the only
// non-terminal state.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptAbandoned  AttemptStatus = "abandoned"
	AttemptTimeout    AttemptStatus = "timeout"
)

// Terminal reports whether no further transition is allowed.
func (s AttemptStatus) Terminal() bool {
	return s != AttemptInProgress
}

// Response is a candidate's answer to one question. A nil SelectedOption
// means the question was only viewed or flagged.
type Response struct {
	QuestionID     int  `json:"questionId" binding:"gte=0"`
	SelectedOption *int `json:"selectedOption" binding:"omitempty,gte=0"`
	IsFlagged      bool `json:"isFlagged"`
}

// DeviceInfo describes the client an attempt was started from.
type DeviceInfo struct {
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Device    string `json:"device,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// TimeTaken is the wall-clock duration of a finished attempt.
type TimeTaken struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// NewTimeTaken splits d into hours, minutes and seconds. Negative durations
// count as zero.
func NewTimeTaken(d time.Duration) TimeTaken {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return TimeTaken{Hours: total / 3600, Minutes: total % 3600 / 60, Seconds: total % 60}
}

// ExamAttempt is one user's timed engagement with one paper. Scoring
// fields stay zero until the attempt leaves in-progress.
type ExamAttempt struct {
	AttemptID    string  `json:"examId"`
	UserID       string  `json:"userId"`
	PaperID      string  `json:"paperId"`
	PaperName    string  `json:"paperName"`
	PaperCode    *string `json:"paperCode"`
	DepartmentID *string `json:"departmentId"`

	Responses []Response `json:"responses"`

	TotalQuestions       int `json:"totalQuestions"`
	AttemptedQuestions   int `json:"attemptedQuestions"`
	UnattemptedQuestions int `json:"unattemptedQuestions"`
	CorrectAnswers       int `json:"correctAnswers"`
	IncorrectAnswers     int `json:"incorrectAnswers"`

	Score           float64 `json:"score"`
	MaxScore        float64 `json:"maxScore"`
	Percentage      float64 `json:"percentage"`
	Accuracy        float64 `json:"accuracy"`
	PassingScore    float64 `json:"passingScore"`
	NegativeMarking float64 `json:"negativeMarking"`
	IsPassed        bool    `json:"isPassed"`

	StartTime  time.Time     `json:"startTime"`
	EndTime    *time.Time    `json:"endTime,omitempty"`
	TimeTaken  *TimeTaken    `json:"timeTaken,omitempty"`
	Status     AttemptStatus `json:"status"`
	DeviceInfo *DeviceInfo   `json:"deviceInfo,omitempty"`
	Remarks    string        `json:"remarks,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Submission is the full set of fields written when an attempt is submitted.
type Submission struct {
	Responses            []Response
	TotalQuestions       int
	AttemptedQuestions   int
	UnattemptedQuestions int
	CorrectAnswers       int
	IncorrectAnswers     int
	Score                float64
	MaxScore             float64
	Percentage           float64
	Accuracy             float64
	PassingScore         float64
	NegativeMarking      float64
	IsPassed             bool
	EndTime              time.Time
	TimeTaken            TimeTaken
	Remarks              string
}

// AttemptResult is the scoring outcome returned to the candidate.
type AttemptResult struct {
	AttemptID            string        `json:"examId"`
	PaperID              string        `json:"paperId"`
	Status               AttemptStatus `json:"status"`
	Score                float64       `json:"score"`
	MaxScore             float64       `json:"maxScore"`
	PassingScore         float64       `json:"passingScore"`
	Percentage           float64       `json:"percentage"`
	Accuracy             float64       `json:"accuracy"`
	IsPassed             bool          `json:"isPassed"`
	CorrectAnswers       int           `json:"correctAnswers"`
	IncorrectAnswers     int           `json:"incorrectAnswers"`
	TotalQuestions       int           `json:"totalQuestions"`
	AttemptedQuestions   int           `json:"attemptedQuestions"`
	UnattemptedQuestions int           `json:"unattemptedQuestions"`
	NegativeMarking      float64       `json:"negativeMarking"`
	TimeTaken            *TimeTaken    `json:"timeTaken,omitempty"`
	SubmittedAt          *time.Time    `json:"submittedAt"`
}

// StartExamRequest is the payload for starting an attempt.
type StartExamRequest struct {
	UserID     string      `json:"userId" binding:"required,max=128"`
	PaperID    string      `json:"paperId" binding:"required,max=64"`
	DeviceInfo *DeviceInfo `json:"deviceInfo"`
	StartTime  *time.Time  `json:"startTime"`
}

// StartExamResponse carries only the new attempt id.
type StartExamResponse struct {
	AttemptID string `json:"examId"`
}

// SubmitExamRequest is the payload for submitting an attempt.
type SubmitExamRequest struct {
	AttemptID            string     `json:"examId" binding:"required"`
	UserID               string     `json:"userId" binding:"required,max=128"`
	PaperID              string     `json:"paperId" binding:"omitempty,max=64"`
	DepartmentID         string     `json:"departmentId"`
	Responses            []Response `json:"responses" binding:"dive"`
	AttemptedQuestions   *int       `json:"attemptedQuestions" binding:"omitempty,gte=0"`
	UnattemptedQuestions *int       `json:"unattemptedQuestions" binding:"omitempty,gte=0"`
	Remarks              string     `json:"remarks" binding:"omitempty,max=1000"`
}
