package models

// DataFamily identifies which upstream endpoint family serves an instrument
type DataFamily string

const (
	FamilyStock        DataFamily = "stock"
	FamilyCrypto       DataFamily = "crypto"
	FamilyForex        DataFamily = "forex"
	FamilyCommodity    DataFamily = "commodity"
	FamilyEconomic     DataFamily = "economic"
	FamilyIntelligence DataFamily = "intelligence"
)

// InstrumentConfig describes one tracked instrument. The catalogue is built
// once at startup and never mutated afterwards.
type InstrumentConfig struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Symbol   string     `json:"symbol"`
	Category string     `json:"category"`
	Family   DataFamily `json:"family"`

	// Display metadata
	Icon   string `json:"icon"`
	Color  string `json:"color"`
	Handle string `json:"handle"`

	// Family-specific request parameters
	Function   string `json:"function,omitempty"`    // commodity/economic endpoint function
	FromSymbol string `json:"from_symbol,omitempty"` // forex base currency
	ToSymbol   string `json:"to_symbol,omitempty"`   // forex quote currency
	Interval   string `json:"interval,omitempty"`

	// FallbackPrice is a hardcoded per-symbol approximation used when no live
	// data is obtainable. It is a display placeholder, not a market signal.
	FallbackPrice float64 `json:"fallback_price,omitempty"`

	// NominalChangePct is the policy-chosen change shown for forex pairs,
	// which have no native change field upstream. Known approximation.
	NominalChangePct float64 `json:"nominal_change_pct,omitempty"`
}
