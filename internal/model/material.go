package model

import "time"

// MaterialType enumerates the kinds of study material.
type MaterialType string

const (
	MaterialTypeVideo MaterialType = "video"
	MaterialTypePDF   MaterialType = "pdf"
	MaterialTypeOther MaterialType = "other"
)

// Material is a study resource attached to a department. The file itself
// lives in external storage; only its URL is kept here.
type Material struct {
	ID           string       `json:"materialId"`
	DepartmentID string       `json:"departmentId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Type         MaterialType `json:"type"`
	URL          string       `json:"url"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	// Duration in seconds, for videos.
	Duration  int       `json:"duration,omitempty"`
	FileSize  int64     `json:"fileSize,omitempty"`
	Tags      []string  `json:"tags"`
	IsActive  bool      `json:"isActive"`
	ViewCount int       `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateMaterialRequest is the payload for registering a material.
type CreateMaterialRequest struct {
	DepartmentID string       `json:"departmentId" binding:"required"`
	Title        string       `json:"title" binding:"required,min=3,max=200"`
	Description  string       `json:"description" binding:"omitempty,max=2000"`
	Type         MaterialType `json:"type" binding:"required,oneof=video pdf other"`
	URL          string       `json:"url" binding:"required,url"`
	ThumbnailURL string       `json:"thumbnailUrl" binding:"omitempty,url"`
	Duration     int          `json:"duration" binding:"omitempty,gte=0"`
	FileSize     int64        `json:"fileSize" binding:"omitempty,gte=0"`
	Tags         []string     `json:"tags" binding:"omitempty,max=20,dive,min=1,max=40"`
}
