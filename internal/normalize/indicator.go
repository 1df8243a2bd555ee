package normalize

import (
	"encoding/json"

	"github.com/index-back/pkg/models"
)

// indicatorResponse mirrors the commodity and economic-indicator endpoints:
// an ordered list of dated values, most recent first.
type indicatorResponse struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
	Data []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"data"`
}

// IndicatorSeries normalizes a commodity or economic-indicator payload.
// Index 0 is the current observation and index 1 the prior period for the
// change computation. NA points are skipped.
func IndicatorSeries(payload json.RawMessage, symbol string) (models.NormalizedQuote, error) {
	const family = "indicator"

	var resp indicatorResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return models.NormalizedQuote{}, &Error{Family: family, Field: "data", Reason: "did not decode"}
	}

	type obs struct {
		date  string
		value float64
	}
	usable := make([]obs, 0, 2)
	for _, d := range resp.Data {
		if notAvailable(d.Value) {
			continue
		}
		v, err := parseFloat(family, "value", d.Value)
		if err != nil {
			return models.NormalizedQuote{}, err
		}
		usable = append(usable, obs{date: d.Date, value: v})
		if len(usable) == 2 {
			break
		}
	}

	if len(usable) == 0 {
		return models.NormalizedQuote{}, errMissing(family, "data")
	}

	current := usable[0]

	var change, changePct float64
	if len(usable) == 2 {
		prior := usable[1]
		change = current.value - prior.value
		if prior.value != 0 {
			changePct = change / prior.value * 100
		}
	}

	return models.NormalizedQuote{
		Symbol:        symbol,
		Price:         current.value,
		Change:        change,
		ChangePercent: changePct,
		LatestDay:     current.date,
	}, nil
}
