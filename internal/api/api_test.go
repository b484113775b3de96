package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/cache"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/dataset"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type constantModel struct {
	value float64
	err   error
	block bool
}

func (m constantModel) Name() string { return "constant" }

func (m constantModel) Forecast(ctx context.Context, ts domain.TimeSeries, horizon int) ([]domain.Point, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	points := make([]domain.Point, horizon)
	for i := range points {
		points[i] = domain.Point{Date: ts.LastDate().AddDate(0, 0, i+1), Value: m.value}
	}
	return points, nil
}

func csvBody(products ...string) string {
	var b strings.Builder
	b.WriteString("Date,Product,Demand,Inventory\n")
	for _, p := range products {
		for i := 0; i < 10; i++ {
			b.WriteString(day0.AddDate(0, 0, i).Format("2006-01-02") + "," + p + ",10,50\n")
		}
	}
	return b.String()
}

func setupRouter(t *testing.T, opts service.Options) (*gin.Engine, *service.DatasetService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	forecasts := cache.NewForecastCache(50, 0)
	datasets := service.NewDatasetService(cache.NewDatasetCache(5), forecasts, nil, nil)
	svc := service.NewForecastService(datasets, forecasts, nil, nil, opts)

	router := NewRouter(&Services{Forecasts: svc, Datasets: datasets}, RouterOptions{
		MaxUploadBytes: 1 << 20,
		DefaultDays:    30,
	})
	return router, datasets
}

func setDefault(t *testing.T, datasets *service.DatasetService, products ...string) *domain.Dataset {
	t.Helper()
	ds, err := dataset.ParseCSV(strings.NewReader(csvBody(products...)), "default.csv")
	require.NoError(t, err)
	datasets.SetDefault(ds)
	return ds
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("dataset", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func postForecast(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := setupRouter(t, service.Options{Model: constantModel{value: 10}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "forecast_cache_hits_total")
}

func TestUploadGetDeleteDataset(t *testing.T) {
	router, _ := setupRouter(t, service.Options{Model: constantModel{value: 10}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "demand.csv", csvBody("Widget", "Gadget")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var summary domain.DatasetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 20, summary.Rows)
	assert.Equal(t, []string{"Gadget", "Widget"}, summary.Products)
	require.NotEmpty(t, summary.DatasetID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products?dataset_id="+summary.DatasetID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"products":["Gadget","Widget"]}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+summary.DatasetID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/"+summary.DatasetID, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+summary.DatasetID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadRejectsBadFiles(t *testing.T) {
	router, _ := setupRouter(t, service.Options{Model: constantModel{value: 10}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "demand.json", "{}"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "demand.csv", "Date,Product,Demand\n2024-01-01,Widget,3\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid data", body["error"])
	assert.Contains(t, body["details"], "Inventory")
}

func TestForecastEndpoint(t *testing.T) {
	router, datasets := setupRouter(t, service.Options{Model: constantModel{value: 10}})
	setDefault(t, datasets, "Widget")

	w := postForecast(router, `{"product":"Widget","horizon_days":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res domain.ForecastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Widget", res.Product)
	assert.Len(t, res.Forecast, 5)
	assert.Len(t, res.Historical, 10)
	assert.Equal(t, 29, res.OrderQuantity)
}

func TestForecastEndpointErrors(t *testing.T) {
	router, datasets := setupRouter(t, service.Options{Model: constantModel{value: 10}})
	setDefault(t, datasets, "Widget")

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed body", `{"product":`, http.StatusBadRequest},
		{"missing product", `{"horizon_days":5}`, http.StatusBadRequest},
		{"horizon out of range", `{"product":"Widget","horizon_days":1000}`, http.StatusBadRequest},
		{"unknown product", `{"product":"Nope","horizon_days":5}`, http.StatusBadRequest},
		{"unknown dataset", `{"product":"Widget","horizon_days":5,"dataset_id":"missing"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForecast(router, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestForecastEndpointModelErrors(t *testing.T) {
	t.Run("fit failure", func(t *testing.T) {
		model := constantModel{err: &domain.ModelFitError{Product: "Widget", Reason: "singular"}}
		router, datasets := setupRouter(t, service.Options{Model: model})
		setDefault(t, datasets, "Widget")

		w := postForecast(router, `{"product":"Widget","horizon_days":5}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("timeout", func(t *testing.T) {
		router, datasets := setupRouter(t, service.Options{
			Model:      constantModel{block: true},
			FitTimeout: 20 * time.Millisecond,
		})
		setDefault(t, datasets, "Widget")

		w := postForecast(router, `{"product":"Widget","horizon_days":5}`)
		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

func TestExportCSV(t *testing.T) {
	router, datasets := setupRouter(t, service.Options{Model: constantModel{value: 10}})
	setDefault(t, datasets, "Widget")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/forecast/Widget/csv?days=5&format=typed", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Contains(t, w.Header().Get("Content-Disposition"), "forecast_Widget_typed.csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 16)
	assert.Equal(t, "Date,Type,Value", lines[0])
	assert.Equal(t, "2024-01-11,Forecast,10", lines[11])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/forecast/Widget/csv?format=xml", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/forecast/Widget/csv?days=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardAndBatchExport(t *testing.T) {
	router, datasets := setupRouter(t, service.Options{Model: constantModel{value: 10}})
	setDefault(t, datasets, "A", "B")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary domain.DashboardSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 30, summary.HorizonDays)
	assert.Equal(t, 600.0, summary.TotalForecastedDemand)
	assert.Equal(t, map[string]int{"A": 29, "B": 29}, summary.OrderQuantities)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/forecasts/export?days=3", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "0", w.Header().Get("X-Failed-Products"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Date,Product,Forecast", lines[0])
	assert.Equal(t, "2024-01-11,A,10", lines[1])
	assert.Equal(t, "2024-01-11,B,10", lines[4])
}

func TestNoDefaultDataset(t *testing.T) {
	router, _ := setupRouter(t, service.Options{Model: constantModel{value: 10}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, allowAll := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, allowAll)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, allowAll = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, allowAll)
}
