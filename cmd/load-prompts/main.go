package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"psykos/internal/config"
	"psykos/internal/db"
	"psykos/internal/game"
)

func main() {
	filePath := flag.String("file", "prompts.csv", "path to a category,text prompts csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	cfg.Logger()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	inserted, err := db.LoadPromptLibrary(conn, *filePath, func(category string) bool {
		_, ok := game.ParseCategory(category)
		return ok
	})
	if err != nil {
		log.Fatal().Err(err).Int("loaded", inserted).Msg("failed to load prompts")
	}
	log.Info().Int("loaded", inserted).Str("file", *filePath).Msg("prompt library updated")
}
