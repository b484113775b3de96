// forecast-go/internal/api/handlers/forecast_handler.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/export"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
)

type ForecastHandler struct {
	forecasts   *service.ForecastService
	defaultDays int
}

func NewForecastHandler(forecasts *service.ForecastService, defaultDays int) *ForecastHandler {
	if defaultDays <= 0 {
		defaultDays = 30
	}
	return &ForecastHandler{forecasts: forecasts, defaultDays: defaultDays}
}

// Forecast handles POST /forecast.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	var req domain.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.forecasts.Forecast(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExportCSV streams one product's forecast as a CSV attachment.
func (h *ForecastHandler) ExportCSV(c *gin.Context) {
	days, ok := h.parseDays(c)
	if !ok {
		return
	}
	format, ok := domain.ParseExportFormat(c.Query("format"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be combined or typed"})
		return
	}

	product := c.Param("product")
	res, err := h.forecasts.Forecast(c.Request.Context(), domain.ForecastRequest{
		Product:     product,
		HorizonDays: days,
		DatasetID:   c.Query("dataset_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, res, format); err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, export.Filename(product, format), buf.Bytes())
}

// Dashboard handles GET /dashboard.
func (h *ForecastHandler) Dashboard(c *gin.Context) {
	days, ok := h.parseDays(c)
	if !ok {
		return
	}

	summary, err := h.forecasts.Dashboard(c.Request.Context(), c.Query("dataset_id"), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportBatch forecasts every product and returns the batch CSV. Products
// that fail are left out; X-Failed-Products carries how many.
func (h *ForecastHandler) ExportBatch(c *gin.Context) {
	days, ok := h.parseDays(c)
	if !ok {
		return
	}

	ds, err := h.forecasts.Datasets().Resolve(c.Query("dataset_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	outcomes, err := h.forecasts.ForecastAll(c.Request.Context(), ds, days)
	if err != nil {
		respondError(c, err)
		return
	}

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
		}
	}

	var buf bytes.Buffer
	if err := export.WriteBatch(&buf, outcomes); err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Failed-Products", strconv.Itoa(failed))
	sendCSV(c, fmt.Sprintf("forecast_batch_%dd.csv", days), buf.Bytes())
}

func (h *ForecastHandler) parseDays(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return h.defaultDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer", "details": err.Error()})
		return 0, false
	}
	return days, true
}

func sendCSV(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}
