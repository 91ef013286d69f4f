package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"postcraft/migrations"
	"postcraft/pkg/config"
	"postcraft/pkg/database"
	"postcraft/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		dir     = flag.String("dir", "", "read migrations from this directory instead of the embedded set")
		command = flag.String("command", "up", "goose command (up, up-by-one, down, redo, reset, status, version, create)")
		name    = flag.String("name", "", "name for new migration (used with create command)")
	)
	flag.Parse()

	log := logger.NewWithService("migrate")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	migrationsDir := "."
	switch {
	case *command == "create":
		// New files always land on disk
		if *name == "" {
			log.Error("Name is required for create command")
			os.Exit(1)
		}
		migrationsDir = "migrations"
		if *dir != "" {
			migrationsDir = *dir
		}
	case *dir != "":
		migrationsDir = *dir
	default:
		goose.SetBaseFS(migrations.FS)
	}

	db, err := sql.Open("postgres", database.DSN(cfg))
	if err != nil {
		log.Error("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Error("Failed to set dialect: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var args []string
	if *command == "create" {
		args = []string{*name, "sql"}
	}
	if err := goose.RunContext(ctx, *command, db, migrationsDir, args...); err != nil {
		log.Error("Migration command %q failed: %v", *command, err)
		os.Exit(1)
	}
	log.Info("Migration command %q finished", *command)
}
