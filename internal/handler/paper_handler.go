package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/response"
	"github.com/railji/railji-backend/internal/service"
	"github.com/railji/railji-backend/internal/validator"
)

// PaperHandler serves the public paper catalog and question reads.
type PaperHandler struct {
	paperService    *service.PaperService
	questionService *service.QuestionBankService
}

func NewPaperHandler(paperService *service.PaperService, questionService *service.QuestionBankService) *PaperHandler {
	return &PaperHandler{paperService: paperService, questionService: questionService}
}

type departmentPapersQuery struct {
	model.PageQuery
	model.PaperFilter
}

// Top godoc
// GET /api/v1/papers/top
func (h *PaperHandler) Top(c *gin.Context) {
	papers, err := h.paperService.Top(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Top papers fetched successfully", papers)
}

// ForDepartment godoc
// GET /api/v1/papers/:departmentId?page=&limit=&paperCode=&paperType=&year=
func (h *PaperHandler) ForDepartment(c *gin.Context) {
	var q departmentPapersQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.paperService.ForDepartment(c.Request.Context(), c.Param("departmentId"), q.PageQuery, q.PaperFilter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Papers fetched successfully", result)
}

// Questions godoc
// GET /api/v1/papers/:departmentId/:paperId
// Returns the question set without correct answers.
func (h *PaperHandler) Questions(c *gin.Context) {
	questions, err := h.questionService.QuestionsForPaper(c.Request.Context(), c.Param("departmentId"), c.Param("paperId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Questions fetched successfully", questions)
}

// Question godoc
// GET /api/v1/papers/:departmentId/:paperId/questions/:questionId
func (h *PaperHandler) Question(c *gin.Context) {
	questionID, err := strconv.Atoi(c.Param("questionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.QuestionByID(c.Request.Context(), c.Param("departmentId"), c.Param("paperId"), questionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Question fetched successfully", question)
}

// Answers godoc
// GET /api/v1/papers/:departmentId/:paperId/answers
// Answer key for trusted callers. Never cached by intermediaries.
func (h *PaperHandler) Answers(c *gin.Context) {
	answers, err := h.questionService.AnswersForPaper(c.Request.Context(), c.Param("departmentId"), c.Param("paperId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Answers fetched successfully", answers)
}
