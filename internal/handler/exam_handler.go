package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/response"
	"github.com/railji/railji-backend/internal/service"
	"github.com/railji/railji-backend/internal/validator"
)

// ExamHandler serves the exam attempt lifecycle.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

type userQuery struct {
	UserID string `form:"userId" binding:"required,max=128"`
}

type historyQuery struct {
	UserID string `form:"userId" binding:"required,max=128"`
	model.PageQuery
}

// Start godoc
// POST /api/v1/exams/start
func (h *ExamHandler) Start(c *gin.Context) {
	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	started, err := h.examService.Start(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Exam started successfully", started)
}

// Submit godoc
// POST /api/v1/exams/submit
// Grades the attempt. A second submit of the same attempt is rejected.
func (h *ExamHandler) Submit(c *gin.Context) {
	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.examService.Submit(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Exam submitted successfully", result)
}

// Result godoc
// GET /api/v1/exams/:examId/result?userId=
func (h *ExamHandler) Result(c *gin.Context) {
	var q userQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.examService.Result(c.Request.Context(), c.Param("examId"), q.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Exam result fetched successfully", result)
}

// History godoc
// GET /api/v1/exams/history?userId=&page=&limit=
func (h *ExamHandler) History(c *gin.Context) {
	var q historyQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempts, pagination, err := h.examService.History(c.Request.Context(), q.UserID, q.PageQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	if attempts == nil {
		attempts = []model.ExamAttempt{}
	}
	response.SuccessWithPagination(c, http.StatusOK, "Exam history fetched successfully", attempts, pagination)
}
