package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/railji/railji-backend/internal/response"
	"github.com/railji/railji-backend/internal/service"
)

type DepartmentHandler struct {
	departmentService *service.DepartmentService
}

func NewDepartmentHandler(departmentService *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// List godoc
// GET /api/v1/departments
func (h *DepartmentHandler) List(c *gin.Context) {
	listing, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Departments fetched successfully", listing)
}

// Get godoc
// GET /api/v1/departments/:id
func (h *DepartmentHandler) Get(c *gin.Context) {
	dept, err := h.departmentService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Department fetched successfully", dept)
}

// Materials godoc
// GET /api/v1/departments/:id/materials
func (h *DepartmentHandler) Materials(c *gin.Context) {
	materials, err := h.departmentService.Materials(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Materials fetched successfully", materials)
}
