package normalize

import (
	"encoding/json"

	"github.com/index-back/pkg/models"
)

// CryptoDaily normalizes a DIGITAL_CURRENCY_DAILY payload into a quote built
// from the two most recent daily closes. It fails closed when no usable data
// point exists.
func CryptoDaily(payload json.RawMessage, symbol string) (models.NormalizedQuote, error) {
	const family = "crypto"

	points, err := TimeSeries(payload, "DIGITAL_CURRENCY_DAILY", "")
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	if len(points) == 0 {
		return models.NormalizedQuote{}, errMissing(family, "series")
	}

	latest := points[len(points)-1]

	var change, changePct float64
	if len(points) >= 2 {
		prior := points[len(points)-2]
		change = latest.Close - prior.Close
		if prior.Close != 0 {
			changePct = change / prior.Close * 100
		}
	}

	return models.NormalizedQuote{
		Symbol:        symbol,
		Price:         latest.Close,
		Change:        change,
		ChangePercent: changePct,
		Volume:        latest.Volume,
		LatestDay:     latest.Date,
	}, nil
}
