// Command seed loads a catalog document into the SQLite catalog table.
//
//	go run ./cmd/seed -db ./data/catalog.db [-file items.json]
//
// Without -file the embedded default catalog is imported.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recycle-sort/internal/catalog"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	def := os.Getenv("CATALOG_DB")
	if def == "" {
		def = "./data/catalog.db"
	}
	dbPath := flag.String("db", def, "SQLite database path")
	file := flag.String("file", "", "catalog JSON file (default: embedded catalog)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var src catalog.Source = catalog.EmbeddedSource{}
	if *file != "" {
		src = &catalog.FileSource{Path: *file}
	}
	doc, err := src.Fetch(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("source", src.String()).Msg("read catalog")
	}

	db, err := catalog.OpenDB(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("open database")
	}
	defer db.Close()

	if err := catalog.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	n, err := catalog.Import(ctx, db, doc)
	if err != nil {
		log.Fatal().Err(err).Msg("import catalog")
	}
	log.Info().Int("items", n).Str("db", *dbPath).Str("source", src.String()).Msg("catalog seeded")
}
