package model

import "time"

// GeneralDepartmentCode identifies the department whose content applies to
// every other department. It is listed separately from the rest.
const GeneralDepartmentCode = "GENERAL"

// Department is a top-level grouping of papers and study materials.
type Department struct {
	ID            string    `json:"departmentId"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	PaperCount    int       `json:"paperCount"`
	MaterialCount int       `json:"materialCount"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DepartmentListing is the cached department snapshot.
type DepartmentListing struct {
	Departments []Department        `json:"departments"`
	Metadata    DepartmentsMetadata `json:"metadata"`
}

type DepartmentsMetadata struct {
	General *Department `json:"general"`
}

// CreateDepartmentRequest is the payload for creating a department.
type CreateDepartmentRequest struct {
	Code        string `json:"code" binding:"required,max=32,departmentcode"`
	Name        string `json:"name" binding:"required,min=2,max=120"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	ImageURL    string `json:"imageUrl" binding:"omitempty,url"`
}
