package model

import (
	"encoding/json"
	"time"
)

// PaperType decides a paper's visibility scope.
type PaperType string

const (
	// PaperTypeGeneral papers are visible to every department.
	PaperTypeGeneral   PaperType = "general"
	PaperTypeSectional PaperType = "sectional"
	PaperTypeFull      PaperType = "full"
)

// Valid reports whether t is a known paper type.
func (t PaperType) Valid() bool {
	switch t {
	case PaperTypeGeneral, PaperTypeSectional, PaperTypeFull:
		return true
	}
	return false
}

// Paper is the metadata of a question paper. Its questions live in the
// question bank under the same id.
type Paper struct {
	ID           string    `json:"paperId"`
	DepartmentID *string   `json:"departmentId"`
	PaperCode    *string   `json:"paperCode"`
	Type         PaperType `json:"paperType"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Year         int       `json:"year"`
	Shift        string    `json:"shift"`
	// Duration in minutes.
	Duration        int       `json:"duration"`
	TotalQuestions  int       `json:"totalQuestions"`
	PassMarks       float64   `json:"passMarks"`
	PassPercentage  float64   `json:"passPercentage"`
	NegativeMarking float64   `json:"negativeMarking"`
	IsFree          bool      `json:"isFree"`
	IsNew           bool      `json:"isNew"`
	Rating          float64   `json:"rating"`
	UsersAttempted  int       `json:"usersAttempted"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsGeneral reports whether the paper is visible across departments.
func (p *Paper) IsGeneral() bool {
	return p.Type == PaperTypeGeneral
}

// Normalize clears fields that do not apply to the paper's type.
func (p *Paper) Normalize() {
	if p.DepartmentID != nil && *p.DepartmentID == "" {
		p.DepartmentID = nil
	}
	if p.PaperCode != nil && *p.PaperCode == "" {
		p.PaperCode = nil
	}
	if p.IsGeneral() {
		p.DepartmentID = nil
	}
}

// Validate checks the scope invariant for the paper's type and the numeric
// ranges. General papers need a code but no department, full papers need a
// department but no code, sectional papers need both.
func (p *Paper) Validate() Violations {
	var v Violations

	if !p.Type.Valid() {
		v.add("paperType must be one of general, sectional, full")
	}
	switch p.Type {
	case PaperTypeGeneral:
		if p.PaperCode == nil {
			v.add("paperCode is required for general papers")
		}
	case PaperTypeSectional:
		if p.DepartmentID == nil {
			v.add("departmentId is required for sectional papers")
		}
		if p.PaperCode == nil {
			v.add("paperCode is required for sectional papers")
		}
	case PaperTypeFull:
		if p.DepartmentID == nil {
			v.add("departmentId is required for full papers")
		}
	}

	if p.Name == "" {
		v.add("name is required")
	}
	if p.Duration <= 0 {
		v.add("duration must be greater than 0")
	}
	if p.TotalQuestions < 0 {
		v.add("totalQuestions must not be negative")
	}
	if p.PassMarks < 0 {
		v.add("passMarks must not be negative")
	}
	if p.TotalQuestions > 0 && p.PassMarks > float64(p.TotalQuestions) {
		v.add("passMarks must not exceed totalQuestions")
	}
	if p.NegativeMarking < 0 {
		v.add("negativeMarking must not be negative")
	}
	if p.Rating < 0 || p.Rating > 5 {
		v.add("rating must be between 0 and 5")
	}
	return v
}

// PaperFilter narrows paper listings. The zero value matches everything.
type PaperFilter struct {
	PaperCode string `form:"paperCode" json:"paperCode,omitempty" binding:"omitempty,max=64"`
	PaperType string `form:"paperType" json:"paperType,omitempty" binding:"omitempty,oneof=general sectional full"`
	Year      int    `form:"year" json:"year,omitempty" binding:"omitempty,gte=1950,lte=2100"`
}

// CacheToken renders the filter as stable JSON for use inside cache keys.
func (f PaperFilter) CacheToken() string {
	raw, _ := json.Marshal(f)
	return string(raw)
}

// PageQuery is the 1-indexed pagination input.
type PageQuery struct {
	Page  int `form:"page,default=1" binding:"gte=1"`
	Limit int `form:"limit,default=10" binding:"gte=1,lte=100"`
}

// Offset returns the number of rows to skip for the page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes totalPages as ceil(total/limit).
func NewPagination(q PageQuery, total int) Pagination {
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, TotalPages: pages}
}

// PaperCodeEntry is one distinct (type, code) pair found in the catalog.
type PaperCodeEntry struct {
	Type PaperType
	Code string
}

// PaperCodes are the codes visible from a department, split by scope.
type PaperCodes struct {
	General    []string `json:"general"`
	NonGeneral []string `json:"nonGeneral"`
}

// DepartmentPapers is one page of a department's papers.
type DepartmentPapers struct {
	Papers     []Paper            `json:"papers"`
	Metadata   DepartmentPapersMD `json:"metadata"`
	Pagination Pagination         `json:"pagination"`
}

type DepartmentPapersMD struct {
	PaperCodes PaperCodes `json:"paperCodes"`
}

// CreatePaperRequest is the payload for creating a paper with its questions.
type CreatePaperRequest struct {
	DepartmentID    *string    `json:"departmentId"`
	PaperCode       *string    `json:"paperCode" binding:"omitempty,max=64"`
	Type            PaperType  `json:"paperType" binding:"required,oneof=general sectional full"`
	Name            string     `json:"name" binding:"required,min=3,max=200"`
	Description     string     `json:"description" binding:"omitempty,max=2000"`
	Year            int        `json:"year" binding:"required,gte=1950,lte=2100"`
	Shift           string     `json:"shift" binding:"omitempty,max=32"`
	Duration        int        `json:"duration" binding:"required,gte=1,lte=600"`
	PassMarks       float64    `json:"passMarks" binding:"gte=0"`
	PassPercentage  float64    `json:"passPercentage" binding:"gte=0,lte=100"`
	NegativeMarking float64    `json:"negativeMarking" binding:"gte=0,lte=4"`
	IsFree          bool       `json:"isFree"`
	IsNew           bool       `json:"isNew"`
	Rating          float64    `json:"rating" binding:"gte=0,lte=5"`
	Questions       []Question `json:"questions" binding:"required,min=1,dive"`
}

// UpdatePaperRequest patches a paper. Nil fields are left unchanged; a
// non-nil Questions replaces the whole question set.
type UpdatePaperRequest struct {
	DepartmentID    *string     `json:"departmentId"`
	PaperCode       *string     `json:"paperCode" binding:"omitempty,max=64"`
	Type            *PaperType  `json:"paperType" binding:"omitempty,oneof=general sectional full"`
	Name            *string     `json:"name" binding:"omitempty,min=3,max=200"`
	Description     *string     `json:"description" binding:"omitempty,max=2000"`
	Year            *int        `json:"year" binding:"omitempty,gte=1950,lte=2100"`
	Shift           *string     `json:"shift" binding:"omitempty,max=32"`
	Duration        *int        `json:"duration" binding:"omitempty,gte=1,lte=600"`
	PassMarks       *float64    `json:"passMarks" binding:"omitempty,gte=0"`
	PassPercentage  *float64    `json:"passPercentage" binding:"omitempty,gte=0,lte=100"`
	NegativeMarking *float64    `json:"negativeMarking" binding:"omitempty,gte=0,lte=4"`
	IsFree          *bool       `json:"isFree"`
	IsNew           *bool       `json:"isNew"`
	Rating          *float64    `json:"rating" binding:"omitempty,gte=0,lte=5"`
	Questions       *[]Question `json:"questions" binding:"omitempty,min=1,dive"`
}

// Apply copies the non-nil fields of r onto p.
func (r *UpdatePaperRequest) Apply(p *Paper) {
	if r.DepartmentID != nil {
		p.DepartmentID = r.DepartmentID
	}
	if r.PaperCode != nil {
		p.PaperCode = r.PaperCode
	}
	if r.Type != nil {
		p.Type = *r.Type
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Year != nil {
		p.Year = *r.Year
	}
	if r.Shift != nil {
		p.Shift = *r.Shift
	}
	if r.Duration != nil {
		p.Duration = *r.Duration
	}
	if r.PassMarks != nil {
		p.PassMarks = *r.PassMarks
	}
	if r.PassPercentage != nil {
		p.PassPercentage = *r.PassPercentage
	}
	if r.NegativeMarking != nil {
		p.NegativeMarking = *r.NegativeMarking
	}
	if r.IsFree != nil {
		p.IsFree = *r.IsFree
	}
	if r.IsNew != nil {
		p.IsNew = *r.IsNew
	}
	if r.Rating != nil {
		p.Rating = *r.Rating
	}
	if r.Questions != nil {
		p.TotalQuestions = len(*r.Questions)
	}
}
