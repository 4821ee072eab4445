package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/response"
	"github.com/railji/railji-backend/internal/service"
	"github.com/railji/railji-backend/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves catalog maintenance, reports and cache administration.
type AdminHandler struct {
	departmentService *service.DepartmentService
	paperService      *service.PaperService
	reportService     *service.ReportService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	departmentService *service.DepartmentService,
	paperService *service.PaperService,
	reportService *service.ReportService,
) *AdminHandler {
	return &AdminHandler{
		departmentService: departmentService,
		paperService:      paperService,
		reportService:     reportService,
	}
}

// ─── Departments & materials ──────────────────────────────────────────

// CreateDepartment godoc
// POST /api/v1/admin/departments
func (h *AdminHandler) CreateDepartment(c *gin.Context) {
	var req model.CreateDepartmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	dept, err := h.departmentService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Department created successfully", dept)
}

// CreateMaterial godoc
// POST /api/v1/admin/materials
func (h *AdminHandler) CreateMaterial(c *gin.Context) {
	var req model.CreateMaterialRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	material, err := h.departmentService.CreateMaterial(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Material created successfully", material)
}

// ─── Papers ───────────────────────────────────────────────────────────

// ListPapers godoc
// GET /api/v1/admin/papers?paperCode=&paperType=&year=
func (h *AdminHandler) ListPapers(c *gin.Context) {
	var f model.PaperFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	papers, err := h.paperService.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Papers fetched successfully", papers)
}

// GetPaper godoc
// GET /api/v1/admin/papers/:paperId
func (h *AdminHandler) GetPaper(c *gin.Context) {
	paper, err := h.paperService.GetByID(c.Request.Context(), c.Param("paperId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Paper fetched successfully", paper)
}

// CreatePaper godoc
// POST /api/v1/admin/papers
// Creates the paper together with its question bank.
func (h *AdminHandler) CreatePaper(c *gin.Context) {
	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Paper created successfully", paper)
}

// UpdatePaper godoc
// PATCH /api/v1/admin/papers/:paperId
func (h *AdminHandler) UpdatePaper(c *gin.Context) {
	var req model.UpdatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Update(c.Request.Context(), c.Param("paperId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Paper updated successfully", paper)
}

// DeletePaper godoc
// DELETE /api/v1/admin/papers/:paperId
func (h *AdminHandler) DeletePaper(c *gin.Context) {
	if err := h.paperService.Delete(c.Request.Context(), c.Param("paperId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Paper deleted successfully", nil)
}

// ExportAttempts godoc
// GET /api/v1/admin/papers/:paperId/attempts/export
// The workbook is rendered in memory so a failure still yields a JSON error.
func (h *AdminHandler) ExportAttempts(c *gin.Context) {
	var buf bytes.Buffer
	filename, err := h.reportService.ExportAttempts(c.Request.Context(), c.Param("paperId"), &buf)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ─── Cache ────────────────────────────────────────────────────────────

// CacheStats godoc
// GET /api/v1/admin/cache/stats
func (h *AdminHandler) CacheStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "Cache stats fetched successfully", h.paperService.CacheStats(c.Request.Context()))
}

// ClearCache godoc
// DELETE /api/v1/admin/cache
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.paperService.ClearCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Cache cleared successfully", nil)
}
