package models

// NormalizedQuote is the canonical record every endpoint family is reduced to
// before display formatting.
type NormalizedQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        float64 `json:"volume"`
	LatestDay     string  `json:"latest_day"`
}

// SeriesPoint is one dated OHLCV observation of a normalized time series.
type SeriesPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
