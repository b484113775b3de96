package dataset

import (
	"strings"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// Field is a canonical dataset column.
type Field int

const (
	FieldProduct Field = iota
	FieldDemand
	FieldInventory
	FieldDate
)

var fieldNames = [...]string{
	FieldProduct:   "Product",
	FieldDemand:    "Demand",
	FieldInventory: "Inventory",
	FieldDate:      "Date",
}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "Unknown"
}

var requiredFields = []Field{FieldDate, FieldProduct, FieldDemand, FieldInventory}

type columnRule struct {
	substrings []string
	field      Field
}

// columnRules is evaluated top to bottom against the lower-cased header; the
// first rule with a matching substring decides the column's field.
var columnRules = []columnRule{
	{substrings: []string{"product", "item"}, field: FieldProduct},
	{substrings: []string{"demand", "sales", "unit"}, field: FieldDemand},
	{substrings: []string{"inventory", "stock"}, field: FieldInventory},
	{substrings: []string{"date"}, field: FieldDate},
}

// classifyColumn returns the field a header maps to, if any.
func classifyColumn(header string) (Field, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, rule := range columnRules {
		for _, sub := range rule.substrings {
			if strings.Contains(h, sub) {
				return rule.field, true
			}
		}
	}
	return 0, false
}

// MapColumns assigns each canonical field the index of the first header
// that claims it. Headers that match no rule are ignored.
func MapColumns(header []string) (map[Field]int, error) {
	mapping := make(map[Field]int, len(requiredFields))
	for i, h := range header {
		field, ok := classifyColumn(cleanHeader(h))
		if !ok {
			continue
		}
		if _, taken := mapping[field]; taken {
			continue
		}
		mapping[field] = i
	}

	var missing []string
	for _, f := range requiredFields {
		if _, ok := mapping[f]; !ok {
			missing = append(missing, f.String())
		}
	}
	if len(missing) > 0 {
		return nil, &domain.DataError{
			Kind:   domain.KindMissingColumn,
			Column: missing[0],
			Msg:    "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return mapping, nil
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}
