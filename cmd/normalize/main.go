// Command normalize turns restaurant CSV exports into normalized JSON
// listings, one independent batch per input file.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"qc_restaurants/internal/adapters/csvsource"
	"qc_restaurants/internal/adapters/observability"
	"qc_restaurants/internal/app"
	"qc_restaurants/internal/domain"
	"qc_restaurants/internal/shared"
	mysqlsrc "qc_restaurants/internal/storage/mysql"
)

type output struct {
	Source      string              `json:"source"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
	Restaurants []domain.Restaurant `json:"restaurants"`
	Cuisines    domain.Facet        `json:"cuisines"`
	Areas       domain.Facet        `json:"areas"`
}

func main() {
	outDir := flag.String("out", "", "directory for <name>.json results (log a summary only when empty)")
	at := flag.String("at", "", "evaluation instant, RFC3339 (default now)")
	importRows := flag.Bool("import", false, "also replace MYSQL_TABLE with the raw rows of the last file")
	flag.Parse()

	cfg, err := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: normalize [-out dir] [-at time] [-import] file.csv...")
		os.Exit(2)
	}

	now := time.Now()
	if *at != "" {
		if now, err = time.Parse(time.RFC3339, *at); err != nil {
			log.Fatal().Err(err).Msg("bad -at")
		}
	}
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Fatal().Err(err).Msg("create output dir")
		}
	}

	log.Info().Int("files", len(files)).Int("workers", cfg.Workers).Time("at", now).Msg("normalize starting")

	ctx := context.Background()
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, f := range files {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := normalizeFile(ctx, path, *outDir, now); err != nil {
				log.Warn().Str("file", path).Err(err).Msg("normalize failed")
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(f)
	}
	wg.Wait()

	if *importRows {
		if err := importFile(ctx, cfg, files[len(files)-1]); err != nil {
			log.Fatal().Err(err).Msg("import failed")
		}
	}

	log.Info().Int("failed", failed).Msg("normalize completed")
	if failed > 0 {
		os.Exit(1)
	}
}

func normalizeFile(ctx context.Context, path, outDir string, now time.Time) error {
	b, err := csvsource.New(path).LoadRows(ctx)
	if err != nil {
		return err
	}
	l := app.Process(b, now)

	log.Info().
		Str("file", path).
		Int("rows", len(b.Rows)).
		Int("open_now", app.OpenCount(l.Restaurants)).
		Int("cuisines", len(l.Cuisines)).
		Int("areas", len(l.Areas)).
		Interface("degradations", l.Degradations).
		Msg("batch normalized")

	if outDir == "" {
		return nil
	}
	body, err := json.MarshalIndent(output{
		Source:      filepath.Base(path),
		EvaluatedAt: now,
		Restaurants: l.Restaurants,
		Cuisines:    l.Cuisines,
		Areas:       l.Areas,
	}, "", "  ")
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".json"
	return os.WriteFile(filepath.Join(outDir, name), body, 0o644)
}

func importFile(ctx context.Context, cfg shared.Config, path string) error {
	b, err := csvsource.New(path).LoadRows(ctx)
	if err != nil {
		return err
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	src, err := mysqlsrc.New(db, cfg.MySQLTable)
	if err != nil {
		return err
	}
	n, err := src.Replace(ctx, b)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Str("table", cfg.MySQLTable).Int("rows", n).Msg("raw rows imported")
	return nil
}
