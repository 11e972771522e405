package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"psykos/internal/config"
)

const migrationsDir = "db/migrations"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	cfg.Logger()

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: migrate up|down|create -name NAME")
	}
	switch os.Args[1] {
	case "up":
		run(cfg, func(m *migrate.Migrate) error { return m.Up() })
		log.Info().Msg("database migrations applied")
	case "down":
		run(cfg, func(m *migrate.Migrate) error { return m.Steps(-1) })
		log.Info().Msg("rolled back one migration")
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		name := fs.String("name", "", "migration name")
		_ = fs.Parse(os.Args[2:])
		up, down, err := create(migrationsDir, *name, time.Now().UTC())
		if err != nil {
			log.Fatal().Err(err).Msg("create migration")
		}
		log.Info().Str("up", up).Str("down", down).Msg("created migration")
	default:
		log.Fatal().Str("command", os.Args[1]).Msg("unknown command")
	}
}

func run(cfg config.Config, step func(*migrate.Migrate) error) {
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	m, err := migrate.New("file://"+migrationsDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("migration setup failed")
	}
	defer m.Close()
	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("database migration failed")
	}
}

func create(dir, name string, now time.Time) (string, string, error) {
	if name == "" {
		return "", "", errors.New("migration name is required")
	}
	if strings.ContainsAny(name, " /") {
		return "", "", errors.New("migration name must not contain spaces or slashes")
	}
	base := fmt.Sprintf("%s_%s", now.Format("20060102150405"), name)
	upPath := filepath.Join(dir, base+".up.sql")
	downPath := filepath.Join(dir, base+".down.sql")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	if err := writeNew(upPath, "-- up migration\n"); err != nil {
		return "", "", err
	}
	if err := writeNew(downPath, "-- down migration\n"); err != nil {
		return "", "", err
	}
	return upPath, downPath, nil
}

func writeNew(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
