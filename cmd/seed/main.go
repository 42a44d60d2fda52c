// cmd/seed creates demo employees, products and tables. Safe to run twice.
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"errors"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/config"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/infra"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var demoProducts = []struct {
	name, category, price string
}{
	{"Chopp 300ml", "bebidas", "9.90"},
	{"Caipirinha", "bebidas", "18.00"},
	{"Refrigerante lata", "bebidas", "6.00"},
	{"Batata frita", "porcoes", "29.90"},
	{"Calabresa acebolada", "porcoes", "34.50"},
	{"Pastel de queijo", "salgados", "8.00"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	ctx := context.Background()

	employees := repository.NewEmployeeRepository(db)
	if _, err := employees.FindFirstActive(ctx); errors.Is(err, repository.ErrNotFound) {
		for _, e := range []*model.Employee{
			{Name: cfg.DefaultEmployeeName, Role: "admin", Active: true},
			{Name: "Joana", Role: "waiter", Active: true},
			{Name: "Carlos", Role: "cashier", Active: true},
		} {
			if err := employees.Create(ctx, e); err != nil {
				log.Fatal().Err(err).Str("name", e.Name).Msg("failed to create employee")
			}
			log.Info().Str("id", e.ID.String()).Str("name", e.Name).Str("role", e.Role).Msg("employee created")
		}
	} else if err != nil {
		log.Fatal().Err(err).Msg("failed to read employees")
	}

	for _, d := range demoProducts {
		p := model.Product{ID: uuid.New(), Name: d.name, Category: d.category, Price: decimal.RequireFromString(d.price), Active: true}
		if err := db.WithContext(ctx).Where(model.Product{Name: d.name}).FirstOrCreate(&p).Error; err != nil {
			log.Fatal().Err(err).Str("name", d.name).Msg("failed to seed product")
		}
	}
	log.Info().Int("count", len(demoProducts)).Msg("products seeded")

	tables := repository.NewTableRepository(db)
	for n := 1; n <= 12; n++ {
		if _, err := tables.FindByNumber(ctx, n); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			log.Fatal().Err(err).Int("number", n).Msg("failed to read table")
		}
		kind := model.TableIndoor
		if n > 8 {
			kind = model.TableOutdoor
		}
		if err := tables.Create(ctx, &model.Table{Number: n, Kind: kind, Status: model.TableFree, Capacity: 4}); err != nil {
			log.Fatal().Err(err).Int("number", n).Msg("failed to create table")
		}
	}
	log.Info().Msg("tables seeded")
}
