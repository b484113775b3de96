package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/export"
	"github.com/andresuchdata/autopo-py/forecast-go/pkg/logger"
)

func runForecast(c *cli.Context, cfg *config.Config) error {
	ds, cleanup, err := loadDataset(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := newForecastService(cfg).ForecastDataset(c.Context, ds, c.String("product"), c.Int("days"))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func exportForecast(c *cli.Context, cfg *config.Config) error {
	format, ok := domain.ParseExportFormat(c.String("format"))
	if !ok {
		return fmt.Errorf("unknown export format %q", c.String("format"))
	}

	ds, cleanup, err := loadDataset(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	product := c.String("product")
	res, err := newForecastService(cfg).ForecastDataset(c.Context, ds, product, c.Int("days"))
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = export.Filename(product, format)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	if err := export.Write(f, res, format); err != nil {
		return err
	}
	logger.Log.Info().Str("product", product).Str("path", out).Str("format", format.String()).Msg("forecast exported")
	return nil
}

func batchForecast(c *cli.Context, cfg *config.Config) error {
	ds, cleanup, err := loadDataset(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outcomes, err := newForecastService(cfg).ForecastAll(c.Context, ds, c.Int("days"))
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
			logger.Log.Warn().Err(o.Err).Str("product", o.Product).Msg("product skipped")
		}
	}

	var buf bytes.Buffer
	if err := export.WriteBatch(&buf, outcomes); err != nil {
		return err
	}

	out := c.String("out")
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.Log.Info().
		Int("products", len(outcomes)).
		Int("failed", failed).
		Str("path", out).
		Msg("batch forecast written")

	if key := c.String("upload-key"); key != "" {
		client, err := newObjectStorage(cfg)
		if err != nil {
			return err
		}
		if err := client.UploadObject(c.Context, key, buf.Bytes()); err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Msg("batch forecast uploaded")
	}
	return nil
}
