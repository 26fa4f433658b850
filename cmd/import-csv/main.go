package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Amund211/japa/internal/adapters/database"
	"github.com/Amund211/japa/internal/adapters/devoteerepository"
	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/logging"
)

// Copies every devotee from a CSV ledger into Postgres.
// Rows that cannot be stored or that conflict with existing devotees are skipped.
// The exit code is non-zero when any other row failed.
//
// Usage: import-csv <path> [schema]
// The connection string is read from DB_CONNECTION_STRING and defaults to the local database.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("No CSV path provided")
	}
	path := os.Args[1]

	schema := database.GetSchemaName(true)
	if len(os.Args) >= 3 {
		schema = os.Args[2]
	}

	connectionString := os.Getenv("DB_CONNECTION_STRING")
	if connectionString == "" {
		connectionString = database.LOCAL_CONNECTION_STRING
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := logging.AddToContext(context.Background(), logger)

	db, err := database.NewPostgresDatabase(ctx, connectionString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	err = database.NewDatabaseMigrator(db, logger).Migrate(ctx, schema)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	source := devoteerepository.NewCSV(path)
	target := devoteerepository.NewPostgres(db, schema)

	devotees := source.LoadAll(ctx)
	log.Printf("Loaded %d devotees from %s", len(devotees), path)

	report := app.BuildImportDevotees(target, time.Now)(ctx, devotees)

	log.Printf(
		"Imported %d devotees into schema %s. Skipped %d, failed %d",
		report.Imported, schema, report.Skipped, report.Failed,
	)
	if report.Failed > 0 {
		os.Exit(1)
	}
}
