package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteFixture = `{
	"Global Quote": {
		"01. symbol": "SPY",
		"05. price": "150.00",
		"06. volume": "1000000",
		"07. latest trading day": "2024-01-02",
		"08. previous close": "147.50",
		"09. change": "+2.50",
		"10. change percent": "1.69%"
	}
}`

func TestQuote_ParsesAllRequiredFields(t *testing.T) {
	q, err := Quote(json.RawMessage(quoteFixture))
	require.NoError(t, err)

	assert.Equal(t, "SPY", q.Symbol)
	assert.Equal(t, 150.00, q.Price)
	assert.Equal(t, 2.50, q.Change)
	assert.Equal(t, 1.69, q.ChangePercent)
	assert.Equal(t, 1000000.0, q.Volume)
	assert.Equal(t, "2024-01-02", q.LatestDay)
}

func TestQuote_MissingRequiredFieldFails(t *testing.T) {
	cases := map[string]string{
		"empty price":   `{"Global Quote": {"05. price": "", "09. change": "1", "10. change percent": "1%", "06. volume": "5", "07. latest trading day": "2024-01-02"}}`,
		"na marker":     `{"Global Quote": {"05. price": "-", "09. change": "1", "10. change percent": "1%", "06. volume": "5", "07. latest trading day": "2024-01-02"}}`,
		"no change":     `{"Global Quote": {"05. price": "150.00", "10. change percent": "1%", "06. volume": "5", "07. latest trading day": "2024-01-02"}}`,
		"no volume":     `{"Global Quote": {"05. price": "150.00", "09. change": "1", "10. change percent": "1%", "07. latest trading day": "2024-01-02"}}`,
		"no day":        `{"Global Quote": {"05. price": "150.00", "09. change": "1", "10. change percent": "1%", "06. volume": "5"}}`,
		"empty object":  `{"Global Quote": {}}`,
		"unparseable":   `{"Global Quote": {"05. price": "abc", "09. change": "1", "10. change percent": "1%", "06. volume": "5", "07. latest trading day": "2024-01-02"}}`,
	}

	for name, fixture := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Quote(json.RawMessage(fixture))
			var nerr *Error
			require.ErrorAs(t, err, &nerr)
		})
	}
}

func TestQuote_NegativeChange(t *testing.T) {
	fixture := `{"Global Quote": {
		"01. symbol": "QQQ",
		"05. price": "380.10",
		"06. volume": "2500000",
		"07. latest trading day": "2024-01-02",
		"09. change": "-1.20",
		"10. change percent": "-0.31%"
	}}`

	q, err := Quote(json.RawMessage(fixture))
	require.NoError(t, err)
	assert.Equal(t, -1.20, q.Change)
	assert.Equal(t, -0.31, q.ChangePercent)
}
