// Command load_ingredients imports the ingredient catalogue from a CSV file
// of name,measurement_unit rows. Rows already present are skipped.
package main

import (
	"context"
	"flag"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	file := flag.String("file", "", "CSV file to import (defaults to INGREDIENTS_CSV)")
	flag.Parse()

	log := logging.Component("load_ingredients")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	path := *file
	if path == "" {
		path = cfg.IngredientsCSV
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	n, err := service.NewIngredientService(db).ImportCSV(context.Background(), path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("import failed")
	}
	log.Info().Int("inserted", n).Str("file", path).Msg("ingredients imported")
}
