package service

import (
	"context"
	"testing"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/model"
)

func TestDepartmentListingSplitsGeneral(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.department(t, "CIVIL")
	general := fx.department(t, model.GeneralDepartmentCode)
	fx.department(t, "MECH")

	listing, err := fx.departments.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Metadata.General == nil || listing.Metadata.General.ID != general.ID {
		t.Fatalf("metadata.general = %+v, want %s", listing.Metadata.General, general.ID)
	}
	if len(listing.Departments) != 2 {
		t.Fatalf("got %d departments, want 2", len(listing.Departments))
	}
	for _, d := range listing.Departments {
		if d.Code == model.GeneralDepartmentCode {
			t.Error("GENERAL listed among departments")
		}
	}
	if !fx.cache.Has(config.CacheKey.DepartmentsKey()) {
		t.Error("listing was not cached")
	}

	fx.department(t, "ELEC")
	if fx.cache.Has(config.CacheKey.DepartmentsKey()) {
		t.Error("creating a department must drop the cached listing")
	}
}

func TestCreateDepartmentDuplicateCode(t *testing.T) {
	fx := newFixture(t)
	fx.department(t, "CIVIL")

	_, err := fx.departments.Create(context.Background(), &model.CreateDepartmentRequest{Code: "CIVIL", Name: "Again"})
	wantKind(t, err, apperror.KindConflict)

	ae, _ := apperror.As(err)
	if ae.Field != "code" {
		t.Errorf("conflict field = %q, want code", ae.Field)
	}
}

func TestMaterials(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	civil := fx.department(t, "CIVIL")

	materials, err := fx.departments.Materials(ctx, civil.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(materials) != 0 {
		t.Fatalf("got %d materials, want 0", len(materials))
	}
	key := config.CacheKey.MaterialsKey(civil.ID)
	if !fx.cache.Has(key) {
		t.Fatal("materials were not cached")
	}

	m, err := fx.departments.CreateMaterial(ctx, &model.CreateMaterialRequest{
		DepartmentID: civil.ID,
		Title:        "Surveying notes",
		Type:         model.MaterialTypePDF,
		URL:          "https://cdn.example.com/survey.pdf",
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	if fx.cache.Has(key) {
		t.Error("creating a material must drop the department's cached materials")
	}

	materials, err = fx.departments.Materials(ctx, civil.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(materials) != 1 || materials[0].ID != m.ID {
		t.Errorf("materials = %+v", materials)
	}

	d, err := fx.departments.GetByID(ctx, civil.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.MaterialCount != 1 {
		t.Errorf("materialCount = %d, want 1", d.MaterialCount)
	}

	_, err = fx.departments.CreateMaterial(ctx, &model.CreateMaterialRequest{DepartmentID: "missing", Title: "x", Type: model.MaterialTypePDF, URL: "https://x"})
	wantKind(t, err, apperror.KindNotFound)

	_, err = fx.departments.Materials(ctx, "missing")
	wantKind(t, err, apperror.KindNotFound)
}

func TestQuestionsAreSanitizedAndScoped(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	civil := fx.department(t, "CIVIL")
	mech := fx.department(t, "MECH")
	own := fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeFull, DepartmentID: &civil.ID})
	general := fx.paper(t, model.CreatePaperRequest{Type: model.PaperTypeGeneral, PaperCode: ptr("GK-1")})

	pq, err := fx.banks.QuestionsForPaper(ctx, civil.ID, own.ID)
	if err != nil {
		t.Fatalf("QuestionsForPaper: %v", err)
	}
	if len(pq.Questions) != 4 {
		t.Errorf("got %d questions, want 4", len(pq.Questions))
	}

	_, err = fx.banks.QuestionsForPaper(ctx, mech.ID, own.ID)
	wantKind(t, err, apperror.KindNotFound)

	if _, err := fx.banks.QuestionsForPaper(ctx, mech.ID, general.ID); err != nil {
		t.Errorf("general bank should be visible from every department: %v", err)
	}

	q, err := fx.banks.QuestionByID(ctx, civil.ID, own.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if q.ID != 3 {
		t.Errorf("question id = %d, want 3", q.ID)
	}
	_, err = fx.banks.QuestionByID(ctx, civil.ID, own.ID, 42)
	wantKind(t, err, apperror.KindNotFound)

	key, err := fx.banks.AnswersForPaper(ctx, civil.ID, own.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range key {
		if e.Correct != e.QuestionID%4 {
			t.Errorf("answer for %d = %d, want %d", e.QuestionID, e.Correct, e.QuestionID%4)
		}
	}
}
