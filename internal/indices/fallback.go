package indices

import (
	"time"

	"github.com/index-back/pkg/models"
)

// Fallback builds the safe placeholder record for an instrument whose live
// data is unusable. It is total: it works for every InstrumentConfig and
// cannot fail. The price shown is the catalogue's hardcoded approximation
// (zero when none is configured), never a live value.
func Fallback(cfg models.InstrumentConfig, now time.Time) models.DisplayIndex {
	return models.DisplayIndex{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Symbol:   cfg.Symbol,
		Category: cfg.Category,
		Family:   cfg.Family,
		Icon:     cfg.Icon,
		Color:    cfg.Color,
		Handle:   cfg.Handle,

		CurrentValue: scaledValue(cfg.FallbackPrice),
		Value:        "N/A",
		Price:        cfg.FallbackPrice,

		Change:      "+0.00%",
		ChangeValue: 0,
		IsPositive:  true,

		Sparkline:   flatSparkline(SparklinePoints),
		Volume:      "—",
		LastUpdated: now.Format("2006-01-02"),

		Fallback: true,
	}
}
