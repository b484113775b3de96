package domain

import (
	"fmt"
	"time"
)

// DataErrorKind classifies why input data was rejected.
type DataErrorKind string

const (
	KindMissingColumn    DataErrorKind = "missing_column"
	KindBadDate          DataErrorKind = "bad_date"
	KindNonNumeric       DataErrorKind = "non_numeric"
	KindMissingValue     DataErrorKind = "missing_value"
	KindNegativeValue    DataErrorKind = "negative_value"
	KindUnknownProduct   DataErrorKind = "unknown_product"
	KindInsufficientRows DataErrorKind = "insufficient_rows"
	KindEmptyDataset     DataErrorKind = "empty_dataset"
	KindBadRequest       DataErrorKind = "bad_request"
)

// DataError reports invalid or insufficient input data.
type DataError struct {
	Kind    DataErrorKind
	Product string
	Column  string
	Row     int // 1-based data row, 0 when not row specific
	Msg     string
}

func (e *DataError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("data error: %s (column %q, row %d)", msg, e.Column, e.Row)
	case e.Column != "":
		return fmt.Sprintf("data error: %s (column %q)", msg, e.Column)
	case e.Product != "":
		return fmt.Sprintf("data error: %s (product %q)", msg, e.Product)
	}
	return "data error: " + msg
}

func UnknownProductError(product string) *DataError {
	return &DataError{
		Kind:    KindUnknownProduct,
		Product: product,
		Msg:     fmt.Sprintf("product %q not found in dataset", product),
	}
}

func InsufficientRowsError(product string, have int) *DataError {
	return &DataError{
		Kind:    KindInsufficientRows,
		Product: product,
		Msg:     fmt.Sprintf("product %q has %d rows, at least %d are required", product, have, MinRowsPerProduct),
	}
}

// ModelFitError reports that the forecast model could not be fitted.
type ModelFitError struct {
	Product string
	Reason  string
	Err     error
}

func (e *ModelFitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model fit failed for %q: %s: %v", e.Product, e.Reason, e.Err)
	}
	return fmt.Sprintf("model fit failed for %q: %s", e.Product, e.Reason)
}

func (e *ModelFitError) Unwrap() error { return e.Err }

// NotFoundError reports a dataset handle or other resource that is gone.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// TimeoutError reports a model fit that exceeded its deadline.
type TimeoutError struct {
	Product string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("forecast for %q timed out after %s", e.Product, e.After)
}
