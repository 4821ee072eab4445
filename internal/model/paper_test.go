package model

import (
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestPaperValidateScope(t *testing.T) {
	base := func(typ PaperType, dept, code *string) *Paper {
		return &Paper{
			Type:           typ,
			DepartmentID:   dept,
			PaperCode:      code,
			Name:           "RRB JE 2024",
			Duration:       90,
			TotalQuestions: 100,
			PassMarks:      33,
		}
	}

	tests := []struct {
		name  string
		paper *Paper
		want  []string
	}{
		{"general with code", base(PaperTypeGeneral, nil, strPtr("GA-01")), nil},
		{"general without code", base(PaperTypeGeneral, nil, nil), []string{"paperCode is required for general papers"}},
		{"sectional complete", base(PaperTypeSectional, strPtr("civil"), strPtr("CE-01")), nil},
		{"sectional missing both", base(PaperTypeSectional, nil, nil), []string{
			"departmentId is required for sectional papers",
			"paperCode is required for sectional papers",
		}},
		{"full without code", base(PaperTypeFull, strPtr("civil"), nil), nil},
		{"full without department", base(PaperTypeFull, nil, strPtr("X")), []string{"departmentId is required for full papers"}},
		{"unknown type", base("mock", strPtr("civil"), strPtr("X")), []string{"paperType must be one of general, sectional, full"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.paper.Validate()
			if len(got) != len(tt.want) {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("violation %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPaperValidateRanges(t *testing.T) {
	p := &Paper{
		Type:            PaperTypeFull,
		DepartmentID:    strPtr("civil"),
		TotalQuestions:  10,
		PassMarks:       11,
		NegativeMarking: -1,
		Rating:          6,
	}
	v := p.Validate()
	joined := v.Error()
	for _, want := range []string{"name is required", "duration", "passMarks must not exceed", "negativeMarking", "rating"} {
		if !strings.Contains(joined, want) {
			t.Errorf("violations %q missing %q", joined, want)
		}
	}
	if v.Err() == nil {
		t.Fatal("Err() must be non-nil when violations exist")
	}
}

func TestPaperNormalize(t *testing.T) {
	p := &Paper{Type: PaperTypeGeneral, DepartmentID: strPtr("civil"), PaperCode: strPtr("")}
	p.Normalize()
	if p.DepartmentID != nil {
		t.Error("general paper kept its department")
	}
	if p.PaperCode != nil {
		t.Error("empty paper code not cleared")
	}
}

func TestUpdatePaperRequestApply(t *testing.T) {
	p := &Paper{Name: "old", Type: PaperTypeFull, TotalQuestions: 5}
	general := PaperTypeGeneral
	qs := []Question{{ID: 1}, {ID: 2}}
	req := UpdatePaperRequest{Type: &general, Name: strPtr("new"), Questions: &qs}

	req.Apply(p)
	if p.Name != "new" || p.Type != PaperTypeGeneral || p.TotalQuestions != 2 {
		t.Fatalf("Apply produced %+v", p)
	}
}

func TestValidateQuestions(t *testing.T) {
	opts := []LocalizedText{{En: "a"}, {En: "b"}, {En: "c"}, {En: "d"}}
	ok := Question{ID: 1, Question: LocalizedText{En: "q", Hi: "प्र"}, Options: opts, Correct: 3}

	if v := ValidateQuestions([]Question{ok}); len(v) != 0 {
		t.Fatalf("valid question rejected: %v", v)
	}
	if v := ValidateQuestions(nil); len(v) != 1 {
		t.Fatalf("empty set: %v", v)
	}

	bad := []Question{
		ok,
		{ID: 1, Question: LocalizedText{En: "dup"}, Options: opts, Correct: 0},
		{ID: 2, Question: LocalizedText{En: "few"}, Options: opts[:3], Correct: 0},
		{ID: 3, Question: LocalizedText{En: "range"}, Options: opts, Correct: 4},
		{ID: 4, Options: opts, Correct: 0},
	}
	v := ValidateQuestions(bad)
	if len(v) != 4 {
		t.Fatalf("got %d violations, want 4: %v", len(v), v)
	}
}

func TestPublicStripsCorrect(t *testing.T) {
	q := Question{ID: 7, Question: LocalizedText{En: "q"}, Correct: 2}
	pub := q.Public()
	if pub.ID != 7 || pub.Question.En != "q" {
		t.Fatalf("Public() = %+v", pub)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, limit, total, wantPages, wantOffset int
	}{
		{1, 10, 0, 0, 0},
		{1, 10, 10, 1, 0},
		{2, 10, 11, 2, 10},
		{3, 6, 13, 3, 12},
	}
	for _, tt := range tests {
		q := PageQuery{Page: tt.page, Limit: tt.limit}
		p := NewPagination(q, tt.total)
		if p.TotalPages != tt.wantPages {
			t.Errorf("NewPagination(%d,%d,%d).TotalPages = %d, want %d", tt.page, tt.limit, tt.total, p.TotalPages, tt.wantPages)
		}
		if q.Offset() != tt.wantOffset {
			t.Errorf("Offset(%d,%d) = %d, want %d", tt.page, tt.limit, q.Offset(), tt.wantOffset)
		}
	}
}

func TestPaperFilterCacheToken(t *testing.T) {
	if got := (PaperFilter{}).CacheToken(); got != "{}" {
		t.Errorf("empty filter token = %s", got)
	}
	a := PaperFilter{PaperType: "full", Year: 2024}.CacheToken()
	b := PaperFilter{Year: 2024, PaperType: "full"}.CacheToken()
	if a != b || a != `{"paperType":"full","year":2024}` {
		t.Errorf("tokens %s / %s", a, b)
	}
}

func TestNewTimeTaken(t *testing.T) {
	got := NewTimeTaken(2*time.Hour + 5*time.Minute + 9*time.Second + 300*time.Millisecond)
	if got != (TimeTaken{Hours: 2, Minutes: 5, Seconds: 9}) {
		t.Fatalf("NewTimeTaken = %+v", got)
	}
	if NewTimeTaken(-time.Second) != (TimeTaken{}) {
		t.Fatal("negative duration must be zero")
	}
}

func TestAttemptStatusTerminal(t *testing.T) {
	for _, s := range []AttemptStatus{AttemptSubmitted, AttemptAbandoned, AttemptTimeout} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	if AttemptInProgress.Terminal() {
		t.Error("in-progress must not be terminal")
	}
}
