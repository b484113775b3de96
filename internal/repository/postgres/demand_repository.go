// forecast-go/internal/repository/postgres/demand_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/dataset"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const defaultDemandTable = "demand_inventory"

// DemandRepository reads and writes demand rows of the shape
// (date, product, demand, inventory).
type DemandRepository struct {
	db    *DB
	table string
}

func NewDemandRepository(db *DB, table string) *DemandRepository {
	if table == "" {
		table = defaultDemandTable
	}
	return &DemandRepository{db: db, table: table}
}

func selectDemandQuery(table string) string {
	return fmt.Sprintf(`
		SELECT date, product, demand, inventory
		FROM %s
		ORDER BY date, product`, pq.QuoteIdentifier(table))
}

func insertDemandQuery(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (date, product, demand, inventory)
		VALUES ($1, $2, $3, $4)`, pq.QuoteIdentifier(table))
}

func createDemandTableQuery(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			date      DATE NOT NULL,
			product   TEXT NOT NULL,
			demand    DOUBLE PRECISION NOT NULL,
			inventory DOUBLE PRECISION NOT NULL
		)`, pq.QuoteIdentifier(table))
}

// LoadRecords returns every row of the demand table.
func (r *DemandRepository) LoadRecords(ctx context.Context) ([]domain.DemandRecord, error) {
	release, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var records []domain.DemandRecord
	if err := r.db.SelectContext(ctx, &records, selectDemandQuery(r.table)); err != nil {
		return nil, fmt.Errorf("failed to load demand records: %w", err)
	}
	return records, nil
}

// LoadDataset loads the demand table and validates it into a dataset.
func (r *DemandRepository) LoadDataset(ctx context.Context) (*domain.Dataset, error) {
	start := time.Now()
	records, err := r.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}

	ds, err := dataset.FromRecords(records, "postgres:"+r.table)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("table", r.table).
		Int("rows", len(records)).
		Dur("duration", time.Since(start)).
		Msg("demand dataset loaded from postgres")
	return ds, nil
}

// ReplaceRecords swaps the table contents for records in one transaction.
func (r *DemandRepository) ReplaceRecords(ctx context.Context, records []domain.DemandRecord) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createDemandTableQuery(r.table)); err != nil {
			return fmt.Errorf("failed to create demand table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", pq.QuoteIdentifier(r.table))); err != nil {
			return fmt.Errorf("failed to clear demand table: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, insertDemandQuery(r.table))
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, rec.Date, rec.Product, rec.Demand, rec.Inventory); err != nil {
				return fmt.Errorf("failed to insert demand row for %s: %w", rec.Product, err)
			}
		}
		return nil
	})
}
