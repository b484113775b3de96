package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemandQueriesQuoteTable(t *testing.T) {
	assert.Contains(t, selectDemandQuery("demand_inventory"), `FROM "demand_inventory"`)
	assert.Contains(t, insertDemandQuery(`odd"name`), `INSERT INTO "odd""name"`)
	assert.Contains(t, createDemandTableQuery("sales"), `CREATE TABLE IF NOT EXISTS "sales"`)
}

func TestNewDemandRepositoryDefaultsTable(t *testing.T) {
	repo := NewDemandRepository(nil, "")
	assert.Equal(t, defaultDemandTable, repo.table)
}
