package models

// DisplayIndex is the aggregator output for one instrument: static catalogue
// metadata merged with its normalized (or fallback) market data.
type DisplayIndex struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Symbol   string     `json:"symbol"`
	Category string     `json:"category"`
	Family   DataFamily `json:"family"`
	Icon     string     `json:"icon"`
	Color    string     `json:"color"`
	Handle   string     `json:"handle"`

	// CurrentValue is the price scaled to an integer (cents) to avoid
	// floating-point drift in display layers.
	CurrentValue int64   `json:"current_value"`
	Value        string  `json:"value"`
	Price        float64 `json:"price"`

	Change      string  `json:"change"`
	ChangeValue float64 `json:"change_value"`
	IsPositive  bool    `json:"is_positive"`

	Sparkline   []float64 `json:"sparkline"`
	Volume      string    `json:"volume"`
	LastUpdated string    `json:"last_updated"`

	// Fallback marks records synthesized because live data was unusable.
	Fallback bool `json:"fallback"`
}
