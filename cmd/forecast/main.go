// forecast-go/cmd/forecast/main.go
package main

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/cache"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
	"github.com/andresuchdata/autopo-py/forecast-go/pkg/logger"
)

func newFileFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Dataset file (.csv or .xlsx), or s3://<key> to fetch it from object storage",
		Required: required,
		EnvVars:  []string{"FORECAST_DATASET_FILE"},
	}
}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string; loads the demand table instead of --file",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func newTableFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "table",
		Usage:   "Demand table name",
		Value:   "demand_inventory",
		EnvVars: []string{"DB_DEMAND_TABLE"},
	}
}

func newDaysFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "days",
		Usage: "Forecast horizon in days",
		Value: 30,
	}
}

func newProductFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "product",
		Aliases:  []string{"p"},
		Usage:    "Product to forecast",
		Required: true,
	}
}

// newForecastService builds an in-process engine. The CLI is one-shot, so
// it never talks to redis.
func newForecastService(cfg *config.Config) *service.ForecastService {
	forecasts := cache.NewForecastCache(cfg.Cache.ForecastCacheSize, time.Duration(cfg.Cache.ForecastCacheTTLSeconds)*time.Second)
	datasets := service.NewDatasetService(cache.NewDatasetCache(cfg.Cache.DatasetCacheSize), forecasts, nil, nil)
	return service.NewForecastService(datasets, forecasts, nil, nil, service.OptionsFromConfig(cfg.Forecast))
}

func main() {
	var cfg *config.Config

	app := &cli.App{
		Name:  "forecast",
		Usage: "Demand forecasts and inventory policies from the command line",
		Before: func(c *cli.Context) error {
			cfg = config.Load()
			logger.SetLevel(cfg.Server.LogLevel)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Forecast one product and print the result as JSON",
				Flags: []cli.Flag{newFileFlag(true), newProductFlag(), newDaysFlag()},
				Action: func(c *cli.Context) error {
					return runForecast(c, cfg)
				},
			},
			{
				Name:  "export",
				Usage: "Forecast one product and write the CSV export",
				Flags: []cli.Flag{
					newFileFlag(true),
					newProductFlag(),
					newDaysFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "combined or typed",
						Value: "combined",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output path; defaults to the export filename in the working directory",
					},
				},
				Action: func(c *cli.Context) error {
					return exportForecast(c, cfg)
				},
			},
			{
				Name:  "batch",
				Usage: "Forecast every product and write the batch CSV",
				Flags: []cli.Flag{
					newFileFlag(false),
					newDBURLFlag(),
					newTableFlag(),
					newDaysFlag(),
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output path",
						Value: "forecast_batch.csv",
					},
					&cli.StringFlag{
						Name:  "upload-key",
						Usage: "Also upload the CSV to object storage under this key",
					},
				},
				Action: func(c *cli.Context) error {
					return batchForecast(c, cfg)
				},
			},
			{
				Name:  "seed",
				Usage: "Load a dataset file into the demand table",
				Flags: []cli.Flag{
					newFileFlag(true),
					func() cli.Flag {
						f := newDBURLFlag()
						f.Required = true
						return f
					}(),
					newTableFlag(),
				},
				Action: func(c *cli.Context) error {
					return seedDemand(c, cfg)
				},
			},
			{
				Name:  "remote",
				Usage: "List dataset and export objects in object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Only list keys with this prefix",
					},
				},
				Action: func(c *cli.Context) error {
					return listRemote(c, cfg)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("forecast command failed")
	}
}
