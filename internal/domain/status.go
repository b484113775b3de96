package domain

import "strings"

// Forecast methods recorded on a ForecastResult.
const (
	MethodSARIMA       = "sarima"
	MethodTrailingMean = "trailing_mean"
)

// ExportFormat selects the CSV framing of a single-product export.
type ExportFormat int

const (
	ExportCombined ExportFormat = iota
	ExportTyped
)

var exportFormatLabels = map[ExportFormat]string{
	ExportCombined: "combined",
	ExportTyped:    "typed",
}

var exportFormatCodes = map[string]ExportFormat{
	"combined": ExportCombined,
	"typed":    ExportTyped,
}

func (f ExportFormat) String() string {
	if label, ok := exportFormatLabels[f]; ok {
		return label
	}
	return "combined"
}

// ParseExportFormat returns the format for a label (case-insensitive).
// An empty label means combined.
func ParseExportFormat(label string) (ExportFormat, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return ExportCombined, true
	}
	f, ok := exportFormatCodes[label]
	return f, ok
}
