// forecast-go/internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/api/handlers"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/api/middleware"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
)

type Services struct {
	Forecasts *service.ForecastService
	Datasets  *service.DatasetService
}

type RouterOptions struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	DefaultDays    int
}

func NewRouter(services *Services, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Failed-Products"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Datasets != nil {
			datasetHandler := handlers.NewDatasetHandler(services.Datasets)
			datasetGroup := apiGroup.Group("/datasets")
			{
				datasetGroup.POST("", middleware.MaxBodySize(opts.MaxUploadBytes), datasetHandler.Upload)
				datasetGroup.GET("/:id", datasetHandler.Get)
				datasetGroup.DELETE("/:id", datasetHandler.Delete)
			}
			apiGroup.GET("/products", datasetHandler.Products)
		}

		if services.Forecasts != nil {
			forecastHandler := handlers.NewForecastHandler(services.Forecasts, opts.DefaultDays)
			apiGroup.POST("/forecast", forecastHandler.Forecast)
			apiGroup.GET("/forecast/:product/csv", forecastHandler.ExportCSV)
			apiGroup.GET("/dashboard", forecastHandler.Dashboard)
			apiGroup.GET("/forecasts/export", forecastHandler.ExportBatch)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
