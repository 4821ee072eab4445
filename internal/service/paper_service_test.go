package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/model"
)

func TestGroupPaperCodes(t *testing.T) {
	entries := []model.PaperCodeEntry{
		{Type: model.PaperTypeSectional, Code: "S-2"},
		{Type: model.PaperTypeGeneral, Code: "GK-2"},
		{Type: model.PaperTypeFull, Code: "F-1"},
		{Type: model.PaperTypeGeneral, Code: "GK-1"},
		{Type: model.PaperTypeSectional, Code: "S-2"},
		{Type: model.PaperTypeGeneral, Code: "GK-1"},
		{Type: model.PaperTypeSectional, Code: ""},
	}

	got := GroupPaperCodes(entries)
	want := model.PaperCodes{
		General:    []string{"GK-1", "GK-2"},
		NonGeneral: []string{"F-1", "S-2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupPaperCodes = %+v, want %+v", got, want)
	}

	empty := GroupPaperCodes(nil)
	if empty.General == nil || empty.NonGeneral == nil {
		t.Error("empty groups must be non-nil slices")
	}
}

func TestPaperCodesByTypeScope(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	civil := fx.department(t, "CIVIL")
	mech := fx.department(t, "MECH")

	fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeGeneral, PaperCode: ptr("GK-1")})
	fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeGeneral, PaperCode: ptr("GK-1")})
	fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeSectional, DepartmentID: &civil.ID, PaperCode: ptr("CV-2")})
	fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeSectional, DepartmentID: &civil.ID, PaperCode: ptr("CV-1")})
	fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeSectional, DepartmentID: &mech.ID, PaperCode: ptr("ME-1")})
	fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeFull, DepartmentID: &civil.ID})

	got, err := fx.papers.PaperCodesByType(ctx, civil.ID, model.PaperFilter{})
	if err != nil {
		t.Fatalf("PaperCodesByType: %v", err)
	}
	want := model.PaperCodes{General: []string{"GK-1"}, NonGeneral: []string{"CV-1", "CV-2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("civil codes = %+v, want %+v", got, want)
	}

	got, err = fx.papers.PaperCodesByType(ctx, mech.ID, model.PaperFilter{})
	if err != nil {
		t.Fatalf("PaperCodesByType: %v", err)
	}
	want = model.PaperCodes{General: []string{"GK-1"}, NonGeneral: []string{"ME-1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mech codes = %+v, want %+v", got, want)
	}
}

func TestCreatePaperInvalidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	civil := fx.department(t, "CIVIL")
	mech := fx.department(t, "MECH")

	civilKey := config.CacheKey.PaperCodesKey(civil.ID, model.PaperFilter{}.CacheToken())
	mechKey := config.CacheKey.PaperCodesKey(mech.ID, model.PaperFilter{}.CacheToken())
	warm := func(t *testing.T) {
		t.Helper()
		for _, id := range []string{civil.ID, mech.ID} {
			if _, err := fx.papers.PaperCodesByType(ctx, id, model.PaperFilter{}); err != nil {
				t.Fatalf("warm %s: %v", id, err)
			}
		}
		if !fx.cache.Has(civilKey) || !fx.cache.Has(mechKey) {
			t.Fatal("paper codes were not cached")
		}
	}

	t.Run("non-general paper drops only its department", func(t *testing.T) {
		warm(t)
		fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeSectional, DepartmentID: &civil.ID, PaperCode: ptr("CV-1")})

		if fx.cache.Has(civilKey) {
			t.Error("civil paper codes should be invalidated")
		}
		if !fx.cache.Has(mechKey) {
			t.Error("mech paper codes should survive a civil paper")
		}
	})

	t.Run("general paper drops every department", func(t *testing.T) {
		warm(t)
		fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeGeneral, PaperCode: ptr("GK-1")})

		if fx.cache.Has(civilKey) || fx.cache.Has(mechKey) {
			t.Error("general paper must invalidate every department's paper codes")
		}
		got, err := fx.papers.PaperCodesByType(ctx, mech.ID, model.PaperFilter{})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got.General, []string{"GK-1"}) {
			t.Errorf("mech general codes = %v, want [GK-1]", got.General)
		}
	})
}

func TestUpdatePaperTypeChangeInvalidatesAll(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	civil := fx.department(t, "CIVIL")
	mech := fx.department(t, "MECH")
	p := fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeSectional, DepartmentID: &civil.ID, PaperCode: ptr("CV-1")})

	mechKey := config.CacheKey.PaperCodesKey(mech.ID, model.PaperFilter{}.CacheToken())
	if _, err := fx.papers.PaperCodesByType(ctx, mech.ID, model.PaperFilter{}); err != nil {
		t.Fatal(err)
	}

	general := model.PaperTypeGeneral
	updated, err := fx.papers.Update(ctx, p.ID, &model.UpdatePaperRequest{Type: &general})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.DepartmentID != nil {
		t.Errorf("general paper kept department %q", *updated.DepartmentID)
	}
	if fx.cache.Has(mechKey) {
		t.Error("type change to general must invalidate other departments")
	}

	got, err := fx.papers.PaperCodesByType(ctx, mech.ID, model.PaperFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.General, []string{"CV-1"}) {
		t.Errorf("mech general codes = %v, want [CV-1]", got.General)
	}
}

func TestCreatePaperValidation(t *testing.T) {
	fx := newFixture(t)
	civil := fx.department(t, "CIVIL")

	badQuestions := makeQuestions(1)
	badQuestions[0].Correct = 7

	tests := []struct {
		name string
		req  model.CreatePaperRequest
		kind apperror.Kind
	}{
		{"sectional without code", model.CreatePaperRequest{Type: model.PaperTypeSectional, DepartmentID: &civil.ID}, apperror.KindBadRequest},
		{"sectional without department", model.CreatePaperRequest{Type: model.PaperTypeSectional, PaperCode: ptr("X")}, apperror.KindBadRequest},
		{"full without department", model.CreatePaperRequest{Type: model.PaperTypeFull}, apperror.KindBadRequest},
		{"general without code", model.CreatePaperRequest{Type: model.PaperTypeGeneral}, apperror.KindBadRequest},
		{"correct out of range", model.CreatePaperRequest{Type: model.PaperTypeGeneral, PaperCode: ptr("G"), Questions: badQuestions}, apperror.KindBadRequest},
		{"unknown department", model.CreatePaperRequest{Type: model.PaperTypeFull, DepartmentID: ptr("missing")}, apperror.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.Name, req.Year, req.Duration = "Paper", 2024, 60
			if req.Questions == nil {
				req.Questions = makeQuestions(4)
			}
			_, err := fx.papers.Create(context.Background(), &req)
			wantKind(t, err, tt.kind)
		})
	}
}

func TestCreatePaperAssignsIDAndCounts(t *testing.T) {
	fx := newFixture(t)
	civil := fx.department(t, "CIVIL")
	p := fx.paper(t, model.CreatePaperRequest{
		Type: model.PaperTypeFull, DepartmentID: &civil.ID, Questions: makeQuestions(7),
	})

	if len(p.ID) != len("paper-")+6 || p.ID[:6] != "paper-" {
		t.Errorf("paper id = %q, want paper-<6 chars>", p.ID)
	}
	if p.TotalQuestions != 7 {
		t.Errorf("totalQuestions = %d, want 7", p.TotalQuestions)
	}

	d, err := fx.departments.GetByID(context.Background(), civil.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.PaperCount != 1 {
		t.Errorf("paperCount = %d, want 1", d.PaperCount)
	}
}

func TestForDepartmentPagination(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	civil := fx.department(t, "CIVIL")
	mech := fx.department(t, "MECH")

	for i := 0; i < 5; i++ {
		fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeSectional, DepartmentID: &civil.ID, PaperCode: ptr("CV-1"), Year: 2020 + i})
	}
	fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeGeneral, PaperCode: ptr("GK-1"), Year: 2019})
	fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeFull, DepartmentID: &mech.ID})

	page, err := fx.papers.ForDepartment(ctx, civil.ID, model.PageQuery{Page: 2, Limit: 4}, model.PaperFilter{})
	if err != nil {
		t.Fatalf("ForDepartment: %v", err)
	}
	if page.Pagination.Total != 6 || page.Pagination.TotalPages != 2 {
		t.Errorf("pagination = %+v, want total 6 over 2 pages", page.Pagination)
	}
	if len(page.Papers) != 2 {
		t.Fatalf("page 2 has %d papers, want 2", len(page.Papers))
	}
	if page.Papers[1].Type != model.PaperTypeGeneral {
		t.Errorf("oldest paper should be the general one, got %s", page.Papers[1].Type)
	}
	if !reflect.DeepEqual(page.Metadata.PaperCodes.NonGeneral, []string{"CV-1"}) {
		t.Errorf("nonGeneral = %v", page.Metadata.PaperCodes.NonGeneral)
	}

	filtered, err := fx.papers.ForDepartment(ctx, civil.ID, model.PageQuery{Page: 1, Limit: 10}, model.PaperFilter{PaperType: "general"})
	if err != nil {
		t.Fatal(err)
	}
	if filtered.Pagination.Total != 1 {
		t.Errorf("filtered total = %d, want 1", filtered.Pagination.Total)
	}
}

func TestDeletePaper(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	civil := fx.department(t, "CIVIL")
	p := fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeFull, DepartmentID: &civil.ID})

	if _, err := fx.banks.QuestionsForPaper(ctx, civil.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := fx.papers.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fx.cache.Has(config.CacheKey.PaperQuestionsKey(p.ID)) {
		t.Error("cached questions survived delete")
	}
	_, err := fx.banks.QuestionsForPaper(ctx, civil.ID, p.ID)
	wantKind(t, err, apperror.KindNotFound)

	wantKind(t, fx.papers.Delete(ctx, p.ID), apperror.KindNotFound)
}

func TestTopPapers(t *testing.T) {
	fx := newFixture(t)
	for i := 0; i < 8; i++ {
		fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeGeneral, PaperCode: ptr("GK"), Rating: float64(i % 6)})
	}
	top, err := fx.papers.Top(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != TopPapersCount {
		t.Fatalf("got %d top papers, want %d", len(top), TopPapersCount)
	}
	if top[0].Rating != 5 {
		t.Errorf("first top paper rating = %v, want 5", top[0].Rating)
	}
	if !fx.cache.Has(config.CacheKey.TopPapersKey()) {
		t.Error("top papers were not cached")
	}
}
