package normalize

import (
	"encoding/json"
	"strings"

	"github.com/index-back/pkg/models"
)

// exchangeRateResponse mirrors the CURRENCY_EXCHANGE_RATE endpoint shape.
type exchangeRateResponse struct {
	Rate struct {
		FromCode      string `json:"1. From_Currency Code"`
		ToCode        string `json:"3. To_Currency Code"`
		ExchangeRate  string `json:"5. Exchange Rate"`
		LastRefreshed string `json:"6. Last Refreshed"`
	} `json:"Realtime Currency Exchange Rate"`
}

// ExchangeRate normalizes a realtime forex rate. The upstream provides no
// change value for forex pairs, so the caller-supplied nominalChangePct is
// applied instead. That number is a policy-chosen display approximation, not
// a measured market change.
func ExchangeRate(payload json.RawMessage, nominalChangePct float64) (models.NormalizedQuote, error) {
	const family = "forex"

	var resp exchangeRateResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return models.NormalizedQuote{}, &Error{Family: family, Field: "Realtime Currency Exchange Rate", Reason: "did not decode"}
	}
	r := resp.Rate

	rate, err := parseFloat(family, "exchange rate", r.ExchangeRate)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	if notAvailable(r.LastRefreshed) {
		return models.NormalizedQuote{}, errMissing(family, "last refreshed")
	}

	// Keep only the date portion of "2024-01-02 21:30:00".
	day := r.LastRefreshed
	if idx := strings.IndexByte(day, ' '); idx > 0 {
		day = day[:idx]
	}

	symbol := r.FromCode
	if r.ToCode != "" {
		symbol = r.FromCode + "/" + r.ToCode
	}

	return models.NormalizedQuote{
		Symbol:        symbol,
		Price:         rate,
		Change:        rate * nominalChangePct / 100,
		ChangePercent: nominalChangePct,
		LatestDay:     day,
	}, nil
}
