package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const (
	forecastResultKeyPrefix   = "forecast:result"
	dashboardSummaryKeyPrefix = "forecast:dashboard"
)

// ForecastKey identifies a memoized forecast. An empty Fingerprint means the
// dataset has no stable identity and must not be cached.
type ForecastKey struct {
	Product     string
	Horizon     int
	Fingerprint string
}

// Cacheable reports whether results under this key may be memoized.
func (k ForecastKey) Cacheable() bool {
	return k.Fingerprint != ""
}

func (k ForecastKey) String() string {
	return fmt.Sprintf("%s/%d@%s", k.Product, k.Horizon, shortFingerprint(k.Fingerprint))
}

// datasetPrefix groups every redis key of one dataset under a scannable prefix.
func datasetPrefix(base, fingerprint string) string {
	return base + ":" + fingerprint + ":"
}

func buildForecastResultKey(k ForecastKey) string {
	raw := strings.Join([]string{"product=" + k.Product, "horizon=" + strconv.Itoa(k.Horizon)}, "|")
	hash := sha1.Sum([]byte(raw))
	return datasetPrefix(forecastResultKeyPrefix, k.Fingerprint) + hex.EncodeToString(hash[:])
}

func buildDashboardSummaryKey(fingerprint string, days int) string {
	return datasetPrefix(dashboardSummaryKeyPrefix, fingerprint) + "days=" + strconv.Itoa(days)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
