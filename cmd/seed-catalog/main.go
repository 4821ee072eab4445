package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/cache"
	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/database"
	"github.com/railji/railji-backend/internal/logger"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
	"github.com/railji/railji-backend/internal/service"
)

// fixture is the seed file layout. Papers name their department by code so
// the file does not depend on generated ids.
type fixture struct {
	Departments []model.CreateDepartmentRequest `json:"departments"`
	Papers      []fixturePaper                  `json:"papers"`
}

type fixturePaper struct {
	DepartmentCode string `json:"departmentCode"`
	model.CreatePaperRequest
}

func main() {
	var path string
	flag.StringVar(&path, "file", "cmd/seed-catalog/catalog.example.json", "Path to the catalog fixture")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read fixture")
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to parse fixture")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	departmentRepo := repository.NewDepartmentRepository(pool)
	classifier := apperror.NewClassifier(zerolog.Nop())
	ttls := service.CacheTTLsFromConfig(cfg)
	// The running server owns the shared cache; seeding only needs a scratch one.
	scratch := cache.NewMemory()

	departmentService := service.NewDepartmentService(departmentRepo, repository.NewMaterialRepository(pool), scratch, classifier, ttls, log)
	paperService := service.NewPaperService(repository.NewPaperRepository(pool), departmentRepo, scratch, classifier, ttls, log)

	fmt.Printf("=== Seeding %d departments ===\n", len(fx.Departments))
	for i := range fx.Departments {
		req := &fx.Departments[i]
		_, err := departmentService.Create(ctx, req)
		switch {
		case err == nil:
			fmt.Printf("Created department %s\n", req.Code)
		case apperror.KindOf(err) == apperror.KindConflict:
			fmt.Printf("Department %s already exists, skipping\n", req.Code)
		default:
			log.Fatal().Err(err).Str("code", req.Code).Msg("Failed to create department")
		}
	}

	existing, err := departmentRepo.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list departments")
	}
	idByCode := make(map[string]string, len(existing))
	for _, d := range existing {
		idByCode[strings.ToUpper(d.Code)] = d.ID
	}

	fmt.Printf("=== Seeding %d papers ===\n", len(fx.Papers))
	created := 0
	for i := range fx.Papers {
		p := &fx.Papers[i]
		if p.DepartmentCode != "" {
			id, ok := idByCode[strings.ToUpper(p.DepartmentCode)]
			if !ok {
				fmt.Printf("Skipping %q: unknown department %s\n", p.Name, p.DepartmentCode)
				continue
			}
			p.DepartmentID = &id
		}

		paper, err := paperService.Create(ctx, &p.CreatePaperRequest)
		if err != nil {
			fmt.Printf("Error creating paper %q: %v\n", p.Name, err)
			continue
		}
		created++
		fmt.Printf("Created paper %s (%s, %d questions)\n", paper.ID, paper.Type, paper.TotalQuestions)
	}

	fmt.Printf("\nSeed completed! Added %d/%d papers.\n", created, len(fx.Papers))
	if created > 0 {
		fmt.Println("Clear the server cache (DELETE /api/v1/admin/cache) to publish the new papers immediately.")
	}
}
