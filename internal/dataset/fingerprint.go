package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// Fingerprint hashes the canonical encoding of records in load order.
// Identical content always yields the same fingerprint, whatever the source.
func Fingerprint(records []domain.DemandRecord) string {
	h := sha256.New()
	buf := make([]byte, 0, 64)
	for _, r := range records {
		buf = buf[:0]
		buf = r.Date.UTC().AppendFormat(buf, "2006-01-02")
		buf = append(buf, '|')
		buf = strconv.AppendQuote(buf, r.Product)
		buf = append(buf, '|')
		buf = strconv.AppendFloat(buf, r.Demand, 'g', -1, 64)
		buf = append(buf, '|')
		buf = strconv.AppendFloat(buf, r.Inventory, 'g', -1, 64)
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
