package normalize

import (
	"encoding/json"

	"github.com/index-back/pkg/models"
)

// moversResponse mirrors the TOP_GAINERS_LOSERS intelligence endpoint.
type moversResponse struct {
	LastUpdated string     `json:"last_updated"`
	TopGainers  []moverRow `json:"top_gainers"`
	TopLosers   []moverRow `json:"top_losers"`
}

type moverRow struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

// TopMover normalizes the intelligence endpoint by selecting the top gainer
// as the representative value.
func TopMover(payload json.RawMessage) (models.NormalizedQuote, error) {
	const family = "intelligence"

	var resp moversResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return models.NormalizedQuote{}, &Error{Family: family, Field: "top_gainers", Reason: "did not decode"}
	}
	if len(resp.TopGainers) == 0 {
		return models.NormalizedQuote{}, errMissing(family, "top_gainers")
	}

	top := resp.TopGainers[0]

	price, err := parseFloat(family, "price", top.Price)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	change, err := parseFloat(family, "change_amount", top.ChangeAmount)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	changePct, err := parsePercent(family, "change_percentage", top.ChangePercentage)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	volume, err := parseFloat(family, "volume", top.Volume)
	if err != nil {
		return models.NormalizedQuote{}, err
	}

	day := resp.LastUpdated
	if notAvailable(day) {
		return models.NormalizedQuote{}, errMissing(family, "last_updated")
	}

	return models.NormalizedQuote{
		Symbol:        top.Ticker,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Volume:        volume,
		LatestDay:     day,
	}, nil
}
