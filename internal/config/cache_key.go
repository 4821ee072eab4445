package config

import (
	"fmt"
)

// Department-scoped keys all start with "<departmentID>_" so a single
// prefix delete drops every cached view of one department.
type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// DepartmentPrefix returns the prefix shared by every key scoped to a department.
func (r *CacheKeyStruct) DepartmentPrefix(departmentID string) string {
	return departmentID + "_"
}

// PaperCodesKey returns the cache key for a department's paper codes grouped by type.
// filterJSON is the canonical JSON of the filters the codes were computed with.
func (r *CacheKeyStruct) PaperCodesKey(departmentID, filterJSON string) string {
	return fmt.Sprintf("%s_paper_codes_%s", departmentID, filterJSON)
}

// MaterialsKey returns the cache key for a department's active materials.
func (r *CacheKeyStruct) MaterialsKey(departmentID string) string {
	return departmentID + "_materials"
}

// PaperCodesPattern matches the paper codes entry of every department.
func (r *CacheKeyStruct) PaperCodesPattern() string {
	return "_paper_codes_"
}

// DepartmentsKey returns the cache key for the department listing snapshot.
func (r *CacheKeyStruct) DepartmentsKey() string {
	return "all_departments"
}

// TopPapersKey returns the cache key for the top papers snapshot.
func (r *CacheKeyStruct) TopPapersKey() string {
	return "top_papers"
}

// PaperQuestionsKey returns the cache key for a paper's sanitized questions.
func (r *CacheKeyStruct) PaperQuestionsKey(paperID string) string {
	return fmt.Sprintf("paper:%s:questions", paperID)
}

// PaperAnswerKey returns the cache key for a paper's answer key.
func (r *CacheKeyStruct) PaperAnswerKey(paperID string) string {
	return fmt.Sprintf("paper:%s:answers", paperID)
}

var CacheKey = NewCacheKeyStruct()
