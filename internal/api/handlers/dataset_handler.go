// forecast-go/internal/api/handlers/dataset_handler.go
package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/dataset"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
)

var allowedExtensions = map[string]bool{".csv": true, ".xlsx": true}

type DatasetHandler struct {
	datasets *service.DatasetService
}

func NewDatasetHandler(datasets *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{datasets: datasets}
}

// Upload parses the multipart "dataset" file and caches it under a new handle.
func (h *DatasetHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("dataset")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file part in the request"})
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type, please upload a .csv or .xlsx file"})
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	log.Info().Str("filename", file.Filename).Int64("size", file.Size).Msg("processing uploaded dataset")

	summary, err := h.datasets.Upload(c.Request.Context(), f, filepath.Base(file.Filename))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

func (h *DatasetHandler) Get(c *gin.Context) {
	ds, err := h.datasets.Resolve(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataset.Summarize(ds))
}

func (h *DatasetHandler) Delete(c *gin.Context) {
	if err := h.datasets.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Products lists the products of a dataset, or of the default dataset when
// dataset_id is omitted.
func (h *DatasetHandler) Products(c *gin.Context) {
	products, err := h.datasets.Products(c.Query("dataset_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
