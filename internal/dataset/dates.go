package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// columnLayouts are tried in order against the whole Date column; the first
// layout that parses every value is used for all of them.
var columnLayouts = []string{
	"02-01-2006",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
}

// parseDateColumn converts raw date strings into UTC calendar dates.
func parseDateColumn(values []string) ([]time.Time, error) {
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			return nil, &domain.DataError{
				Kind:   domain.KindMissingValue,
				Column: FieldDate.String(),
				Row:    i + 1,
				Msg:    "dataset contains missing values",
			}
		}
	}

	for _, layout := range columnLayouts {
		if dates, ok := parseAll(values, layout); ok {
			log.Debug().Str("layout", layout).Msg("parsed date column")
			return dates, nil
		}
	}

	dates := make([]time.Time, len(values))
	for i, v := range values {
		t, ok := parseFlexible(v)
		if !ok {
			return nil, &domain.DataError{
				Kind:   domain.KindBadDate,
				Column: FieldDate.String(),
				Row:    i + 1,
				Msg:    "failed to parse date column: unrecognised date " + strconv.Quote(v),
			}
		}
		dates[i] = t
	}
	log.Debug().Msg("parsed date column with inferred layouts")
	return dates, nil
}

func parseAll(values []string, layout string) ([]time.Time, bool) {
	dates := make([]time.Time, len(values))
	for i, v := range values {
		t, err := time.Parse(layout, strings.TrimSpace(v))
		if err != nil {
			return nil, false
		}
		dates[i] = calendarDate(t)
	}
	return dates, true
}

// parseFlexible infers the layout of a single value. Values that could be
// read either month-first or day-first are rejected.
func parseFlexible(v string) (time.Time, bool) {
	t, err := dateparse.ParseStrict(strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, false
	}
	return calendarDate(t), true
}

// calendarDate drops the clock, keeping the date as written.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
