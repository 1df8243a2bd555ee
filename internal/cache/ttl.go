package cache

import (
	"strings"
	"time"
)

// ttlTable maps endpoint functions to how long their answers stay fresh.
// Quotes and intraday data expire fastest, monthly and economic series
// slowest. Tunable policy, not a hard contract.
var ttlTable = map[string]time.Duration{
	"GLOBAL_QUOTE":                  5 * time.Minute,
	"TIME_SERIES_INTRADAY":          15 * time.Minute,
	"TIME_SERIES_DAILY":             6 * time.Hour,
	"TIME_SERIES_DAILY_ADJUSTED":    6 * time.Hour,
	"TIME_SERIES_WEEKLY":            12 * time.Hour,
	"TIME_SERIES_WEEKLY_ADJUSTED":   12 * time.Hour,
	"TIME_SERIES_MONTHLY":           24 * time.Hour,
	"TIME_SERIES_MONTHLY_ADJUSTED":  24 * time.Hour,
	"CURRENCY_EXCHANGE_RATE":        10 * time.Minute,
	"FX_DAILY":                      6 * time.Hour,
	"DIGITAL_CURRENCY_DAILY":        time.Hour,
	"TOP_GAINERS_LOSERS":            30 * time.Minute,
	"WTI":                           12 * time.Hour,
	"BRENT":                         12 * time.Hour,
	"NATURAL_GAS":                   12 * time.Hour,
	"COPPER":                        12 * time.Hour,
	"WHEAT":                         12 * time.Hour,
	"REAL_GDP":                      24 * time.Hour,
	"CPI":                           24 * time.Hour,
	"INFLATION":                     24 * time.Hour,
	"UNEMPLOYMENT":                  24 * time.Hour,
	"FEDERAL_FUNDS_RATE":            24 * time.Hour,
	"TREASURY_YIELD":                24 * time.Hour,
}

const defaultTTL = time.Hour

// TTLFor returns the freshness window for an endpoint function.
func TTLFor(function string) time.Duration {
	if ttl, ok := ttlTable[strings.ToUpper(function)]; ok {
		return ttl
	}
	return defaultTTL
}
