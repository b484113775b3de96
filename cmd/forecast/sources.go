package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/dataset"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository/postgres"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/storage"
	"github.com/andresuchdata/autopo-py/forecast-go/pkg/logger"
)

const remotePrefix = "s3://"

func openDB(c *cli.Context) (*postgres.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return postgres.Wrap(sqlx.NewDb(db, "pgx")), nil
}

func newObjectStorage(cfg *config.Config) (storage.ObjectStorage, error) {
	return storage.NewS3Client(cfg.Storage)
}

// loadDataset reads the dataset named by --db-url or --file. The returned
// cleanup removes any temporary download.
func loadDataset(c *cli.Context, cfg *config.Config) (*domain.Dataset, func(), error) {
	noop := func() {}

	if c.String("db-url") != "" {
		db, err := openDB(c)
		if err != nil {
			return nil, noop, err
		}
		defer db.Close()
		ds, err := postgres.NewDemandRepository(db, c.String("table")).LoadDataset(c.Context)
		return ds, noop, err
	}

	file := c.String("file")
	if file == "" {
		return nil, noop, fmt.Errorf("either --file or --db-url is required")
	}
	return loadFileDataset(c.Context, cfg, file)
}

// loadFileDataset loads a local file, or downloads s3://<key> first.
func loadFileDataset(ctx context.Context, cfg *config.Config, file string) (*domain.Dataset, func(), error) {
	noop := func() {}

	key, remote := strings.CutPrefix(file, remotePrefix)
	if !remote {
		ds, err := dataset.LoadFile(file)
		return ds, noop, err
	}

	client, err := newObjectStorage(cfg)
	if err != nil {
		return nil, noop, err
	}
	dir, err := os.MkdirTemp("", "forecast-dataset-*")
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	local := filepath.Join(dir, path.Base(key))
	if err := client.DownloadObject(ctx, key, local); err != nil {
		cleanup()
		return nil, noop, err
	}
	logger.Log.Info().Str("key", key).Msg("dataset downloaded from object storage")

	ds, err := dataset.LoadFile(local)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return ds, cleanup, nil
}

func seedDemand(c *cli.Context, cfg *config.Config) error {
	ds, cleanup, err := loadFileDataset(c.Context, cfg, c.String("file"))
	if err != nil {
		return err
	}
	defer cleanup()

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	table := c.String("table")
	if err := postgres.NewDemandRepository(db, table).ReplaceRecords(c.Context, ds.Records); err != nil {
		return err
	}
	logger.Log.Info().Str("table", table).Int("rows", len(ds.Records)).Msg("demand table seeded")
	return nil
}

func listRemote(c *cli.Context, cfg *config.Config) error {
	client, err := newObjectStorage(cfg)
	if err != nil {
		return err
	}
	objects, err := client.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Printf("%s\t%d\n", obj.Key, obj.Size)
	}
	return nil
}
