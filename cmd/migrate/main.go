package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"carprice/adapters/excel"
	"carprice/adapters/postgres"
	"carprice/internal/dataset"
	"carprice/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/schollz/progressbar/v3"
)

const defaultTable = "car_prices"

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <database_url> <car_prices.csv|xlsx> [table]")
	}

	databaseURL := os.Args[1]
	dataFile := os.Args[2]
	table := defaultTable
	if len(os.Args) > 3 {
		table = os.Args[3]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("Starting import of %s into table %s", dataFile, table)

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner(table)
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations (version %s): %v", runner.Version(), err)
	}
	log.Printf("Schema version %s ready", runner.Version())

	sheet, err := excel.NewDataReader(dataFile).ReadSheet(ctx)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", dataFile, err)
	}
	// refuse to store a file the dashboard could not load
	if err := dataset.CheckSchema(sheet); err != nil {
		log.Fatalf("Refusing to import %s: %v", dataFile, err)
	}

	bar := progressbar.NewOptions(
		len(sheet.Rows),
		progressbar.OptionSetDescription("importing cars"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stdout, "\n")
		}),
		progressbar.OptionSetWriter(os.Stdout),
	)

	repo := postgres.NewCarRepository(db, table)
	imported, err := repo.Import(ctx, sheet, func() { _ = bar.Add(1) })
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	stored, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count stored cars: %v", err)
	}
	log.Printf("Import complete: %d rows written, %d rows in %s", imported, stored, table)
}
