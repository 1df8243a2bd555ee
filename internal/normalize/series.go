package normalize

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/index-back/pkg/models"
)

// seriesKeyTable maps the requested function (plus interval for intraday) to
// the sub-object key the upstream embeds the series under. The substring
// search below is a documented last resort for keys the table does not know.
var seriesKeyTable = map[string]string{
	"TIME_SERIES_DAILY":            "Time Series (Daily)",
	"TIME_SERIES_DAILY_ADJUSTED":   "Time Series (Daily)",
	"TIME_SERIES_WEEKLY":           "Weekly Time Series",
	"TIME_SERIES_WEEKLY_ADJUSTED":  "Weekly Adjusted Time Series",
	"TIME_SERIES_MONTHLY":          "Monthly Time Series",
	"TIME_SERIES_MONTHLY_ADJUSTED": "Monthly Adjusted Time Series",
	"FX_DAILY":                     "Time Series FX (Daily)",
	"DIGITAL_CURRENCY_DAILY":       "Time Series (Digital Currency Daily)",
}

// ohlcvRow mirrors one dated entry of any time-series family. The crypto
// daily family historically used the 4a/5a denominated variants, so both
// spellings are accepted.
type ohlcvRow struct {
	Open     string `json:"1. open"`
	High     string `json:"2. high"`
	Low      string `json:"3. low"`
	Close    string `json:"4. close"`
	CloseUSD string `json:"4a. close (USD)"`
	Volume   string `json:"5. volume"`
}

// seriesKey resolves which top-level key holds the series for a request.
func seriesKey(top map[string]json.RawMessage, function, interval string) (string, error) {
	if function == "TIME_SERIES_INTRADAY" && interval != "" {
		k := "Time Series (" + interval + ")"
		if _, ok := top[k]; ok {
			return k, nil
		}
	}
	if k, ok := seriesKeyTable[strings.ToUpper(function)]; ok {
		if _, present := top[k]; present {
			return k, nil
		}
	}

	// Last resort: the upstream embeds the true series name, so find the one
	// key that looks like a series.
	for k := range top {
		if strings.Contains(k, "Time Series") {
			return k, nil
		}
	}

	return "", &Error{Family: "series", Field: "Time Series", Reason: "is missing or empty"}
}

// TimeSeries normalizes any time-series payload into an ascending-by-date
// array of OHLCV points.
func TimeSeries(payload json.RawMessage, function, interval string) ([]models.SeriesPoint, error) {
	const family = "series"

	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil, &Error{Family: family, Field: "body", Reason: "did not decode"}
	}

	key, err := seriesKey(top, function, interval)
	if err != nil {
		return nil, err
	}

	var rows map[string]ohlcvRow
	if err := json.Unmarshal(top[key], &rows); err != nil {
		return nil, &Error{Family: family, Field: key, Reason: "did not decode"}
	}
	if len(rows) == 0 {
		return nil, errMissing(family, key)
	}

	points := make([]models.SeriesPoint, 0, len(rows))
	for date, row := range rows {
		p, err := normalizeRow(family, date, row)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	// Date strings are ISO formatted, so lexicographic order is date order.
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	return points, nil
}

func normalizeRow(family, date string, row ohlcvRow) (models.SeriesPoint, error) {
	open, err := parseFloat(family, "open", row.Open)
	if err != nil {
		return models.SeriesPoint{}, err
	}
	high, err := parseFloat(family, "high", row.High)
	if err != nil {
		return models.SeriesPoint{}, err
	}
	low, err := parseFloat(family, "low", row.Low)
	if err != nil {
		return models.SeriesPoint{}, err
	}

	closeStr := row.Close
	if notAvailable(closeStr) {
		closeStr = row.CloseUSD
	}
	closeV, err := parseFloat(family, "close", closeStr)
	if err != nil {
		return models.SeriesPoint{}, err
	}

	// Forex series carry no volume; that absence is legitimate.
	var volume float64
	if !notAvailable(row.Volume) {
		volume, err = parseFloat(family, "volume", row.Volume)
		if err != nil {
			return models.SeriesPoint{}, err
		}
	}

	return models.SeriesPoint{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closeV,
		Volume: volume,
	}, nil
}
