// Command agrorisk-import loads snapshot JSON documents into the Postgres
// source, replacing any stored snapshot with the same investigation id.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dd0wney/agrorisk/pkg/config"
	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/source"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

type snapshotSaver interface {
	Save(ctx context.Context, snap *entities.Snapshot) error
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before environment overrides")
	dir := flag.String("dir", "", "Directory of <investigation_id>.json files")
	ensureSchema := flag.Bool("ensure-schema", true, "Create the tables before importing")
	flag.Parse()

	paths := flag.Args()
	if *dir != "" {
		found, err := filepath.Glob(filepath.Join(*dir, "*.json"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: agrorisk-import [-config agrorisk.yaml] [-dir ./data | file.json ...]")
		os.Exit(2)
	}

	if err := run(*configPath, *envFile, *ensureSchema, paths); err != nil {
		fmt.Fprintf(os.Stderr, "agrorisk-import: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, ensureSchema bool, paths []string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}
	if cfg.Source.DatabaseURL == "" {
		return fmt.Errorf("no database configured (set %s)", config.EnvDatabaseURL)
	}
	logger := logging.New(cfg.Logging).With(logging.Component("import"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pg, err := source.NewPGSource(ctx, cfg.Source.PGConfig())
	if err != nil {
		return err
	}
	defer pg.Close()

	if ensureSchema {
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	imported, err := importFiles(ctx, pg, paths, logger)
	logger.Info("import finished", logging.Count(imported), logging.Int("files", len(paths)))
	return err
}

// importFiles validates and saves each file in path order. It stops at the
// first failure and returns how many snapshots were saved before it.
func importFiles(ctx context.Context, dst snapshotSaver, paths []string, logger logging.Logger) (int, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	imported := 0
	for _, path := range sorted {
		snap, err := source.LoadFile(path)
		if err != nil {
			return imported, fmt.Errorf("%s: %w", path, err)
		}
		if err := validation.ValidateSnapshot(snap); err != nil {
			return imported, fmt.Errorf("%s: %w", path, err)
		}
		if err := dst.Save(ctx, snap); err != nil {
			return imported, fmt.Errorf("save %s: %w", snap.InvestigationID, err)
		}
		imported++
		logger.Info("snapshot imported",
			logging.InvestigationID(snap.InvestigationID),
			logging.Path(path),
			logging.Int("entities", snap.EntityCount()),
		)
	}
	return imported, nil
}
