package normalize

import (
	"encoding/json"

	"github.com/index-back/pkg/models"
)

// globalQuoteResponse mirrors the GLOBAL_QUOTE endpoint shape.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
		Change           string `json:"09. change"`
		ChangePercent    string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// Quote normalizes a GLOBAL_QUOTE payload.
func Quote(payload json.RawMessage) (models.NormalizedQuote, error) {
	const family = "quote"

	var resp globalQuoteResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return models.NormalizedQuote{}, &Error{Family: family, Field: "Global Quote", Reason: "did not decode"}
	}
	gq := resp.GlobalQuote

	price, err := parseFloat(family, "price", gq.Price)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	change, err := parseFloat(family, "change", gq.Change)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	changePct, err := parsePercent(family, "change percent", gq.ChangePercent)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	volume, err := parseFloat(family, "volume", gq.Volume)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	if notAvailable(gq.LatestTradingDay) {
		return models.NormalizedQuote{}, errMissing(family, "latest trading day")
	}

	return models.NormalizedQuote{
		Symbol:        gq.Symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Volume:        volume,
		LatestDay:     gq.LatestTradingDay,
	}, nil
}
