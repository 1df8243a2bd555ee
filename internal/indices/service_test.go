package indices

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/index-back/internal/cache"
	"github.com/index-back/internal/upstream"
	"github.com/index-back/pkg/models"
)

const spyQuoteFixture = `{
	"Global Quote": {
		"01. symbol": "SPY",
		"05. price": "150.0000",
		"06. volume": "1000000",
		"07. latest trading day": "2024-01-03",
		"08. previous close": "147.5000",
		"09. change": "2.5000",
		"10. change percent": "1.6949%"
	}
}`

const eurusdFixture = `{
	"Realtime Currency Exchange Rate": {
		"1. From_Currency Code": "EUR",
		"3. To_Currency Code": "USD",
		"5. Exchange Rate": "1.09230000",
		"6. Last Refreshed": "2024-01-03 21:30:01"
	}
}`

// stubQuerier serves canned payloads keyed by function and symbol, counting
// every call that reaches it.
type stubQuerier struct {
	mu       sync.Mutex
	calls    int
	payloads map[string]json.RawMessage
	errs     map[string]error
	panicOn  string
}

func requestKey(req upstream.Request) string {
	return req.Function + ":" + req.Symbol + req.FromSymbol + req.ToSymbol
}

func (q *stubQuerier) Query(_ context.Context, req upstream.Request) (json.RawMessage, error) {
	q.mu.Lock()
	q.calls++
	q.mu.Unlock()

	k := requestKey(req)
	if q.panicOn == k {
		panic("stub querier exploded")
	}
	if err, ok := q.errs[k]; ok {
		return nil, err
	}
	if p, ok := q.payloads[k]; ok {
		return p, nil
	}
	return nil, &upstream.APIError{Message: "no fixture for " + k}
}

func (q *stubQuerier) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func testCatalogue() []models.InstrumentConfig {
	return []models.InstrumentConfig{
		{ID: "sp500", Name: "S&P 500", Symbol: "SPY", Family: models.FamilyStock, FallbackPrice: 450.0},
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Family: models.FamilyCrypto, FallbackPrice: 43000.0},
		{ID: "eurusd", Name: "EUR/USD", Symbol: "EUR/USD", Family: models.FamilyForex, FromSymbol: "EUR", ToSymbol: "USD", NominalChangePct: 0.05, FallbackPrice: 1.09},
	}
}

func newTestService(catalogue []models.InstrumentConfig, q Querier, opts ...Option) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)

	base := []Option{
		WithRand(rand.New(rand.NewSource(1))),
		WithNow(func() time.Time { return time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC) }),
	}
	return NewService(catalogue, q, cache.NewMemoryStore(log), log, append(base, opts...)...)
}

func TestGetAllIndices_FullLengthInCatalogueOrder(t *testing.T) {
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"GLOBAL_QUOTE:SPY":              json.RawMessage(spyQuoteFixture),
			"CURRENCY_EXCHANGE_RATE:EURUSD": json.RawMessage(eurusdFixture),
		},
		// The crypto instrument has no fixture, so it fails.
	}
	svc := newTestService(testCatalogue(), q)

	indices := svc.GetAllIndices(context.Background())
	require.Len(t, indices, 3)

	assert.Equal(t, "sp500", indices[0].ID)
	assert.Equal(t, "bitcoin", indices[1].ID)
	assert.Equal(t, "eurusd", indices[2].ID)

	assert.False(t, indices[0].Fallback)
	assert.True(t, indices[1].Fallback)
	assert.False(t, indices[2].Fallback)
}

func TestGetAllIndices_DisplayRecordShape(t *testing.T) {
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"GLOBAL_QUOTE:SPY": json.RawMessage(spyQuoteFixture),
		},
	}
	svc := newTestService(testCatalogue()[:1], q)

	indices := svc.GetAllIndices(context.Background())
	require.Len(t, indices, 1)
	idx := indices[0]

	assert.Equal(t, "$150.00", idx.Value)
	assert.Equal(t, int64(15000), idx.CurrentValue)
	assert.Equal(t, 150.0, idx.Price)
	assert.Equal(t, "+1.69%", idx.Change)
	assert.True(t, idx.IsPositive)
	assert.Equal(t, "1.0M", idx.Volume)
	assert.Equal(t, "2024-01-03", idx.LastUpdated)
	assert.Len(t, idx.Sparkline, SparklinePoints)
	assert.False(t, idx.Fallback)
}

func TestGetAllIndices_RateLimitBecomesFallback(t *testing.T) {
	q := &stubQuerier{
		errs: map[string]error{
			"GLOBAL_QUOTE:SPY": &upstream.RateLimitError{Note: "Thank you for using our API"},
		},
	}
	svc := newTestService(testCatalogue()[:1], q)

	indices := svc.GetAllIndices(context.Background())
	require.Len(t, indices, 1)

	idx := indices[0]
	assert.True(t, idx.Fallback)
	assert.Equal(t, "N/A", idx.Value)
	assert.Equal(t, 450.0, idx.Price)
	assert.Equal(t, "+0.00%", idx.Change)
	assert.True(t, idx.IsPositive)
	assert.Equal(t, "—", idx.Volume)
	assert.Len(t, idx.Sparkline, SparklinePoints)
}

func TestGetAllIndices_SecondCallServedFromCache(t *testing.T) {
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"GLOBAL_QUOTE:SPY":              json.RawMessage(spyQuoteFixture),
			"CURRENCY_EXCHANGE_RATE:EURUSD": json.RawMessage(eurusdFixture),
		},
	}
	catalogue := []models.InstrumentConfig{testCatalogue()[0], testCatalogue()[2]}
	svc := newTestService(catalogue, q)

	first := svc.GetAllIndices(context.Background())
	callsAfterFirst := q.callCount()
	assert.Equal(t, 2, callsAfterFirst)

	second := svc.GetAllIndices(context.Background())
	assert.Equal(t, callsAfterFirst, q.callCount(), "fresh cache entries must satisfy the second pass")

	// Scalar fields must be identical; sparklines may differ in their
	// synthesized noise.
	for i := range first {
		assert.Equal(t, first[i].Value, second[i].Value)
		assert.Equal(t, first[i].CurrentValue, second[i].CurrentValue)
		assert.Equal(t, first[i].Change, second[i].Change)
	}
}

func TestGetAllIndices_BackoffSuppressesNetwork(t *testing.T) {
	q := &stubQuerier{} // every call fails
	svc := newTestService(testCatalogue()[:1], q)

	first := svc.GetAllIndices(context.Background())
	require.Len(t, first, 1)
	assert.True(t, first[0].Fallback)
	assert.Equal(t, 1, q.callCount())

	// Within the retry window the aggregator must not touch the network.
	second := svc.GetAllIndices(context.Background())
	require.Len(t, second, 1)
	assert.True(t, second[0].Fallback)
	assert.Equal(t, 1, q.callCount())
}

func TestRefreshAllIndices_BypassesFreshCache(t *testing.T) {
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"GLOBAL_QUOTE:SPY": json.RawMessage(spyQuoteFixture),
		},
	}
	svc := newTestService(testCatalogue()[:1], q)

	svc.GetAllIndices(context.Background())
	require.Equal(t, 1, q.callCount())

	svc.RefreshAllIndices(context.Background())
	assert.Equal(t, 2, q.callCount())
}

func TestGetAllIndices_PanicIsolatedToOneInstrument(t *testing.T) {
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"CURRENCY_EXCHANGE_RATE:EURUSD": json.RawMessage(eurusdFixture),
		},
		panicOn: "GLOBAL_QUOTE:SPY",
	}
	catalogue := []models.InstrumentConfig{testCatalogue()[0], testCatalogue()[2]}
	svc := newTestService(catalogue, q)

	indices := svc.GetAllIndices(context.Background())
	require.Len(t, indices, 2)
	assert.True(t, indices[0].Fallback)
	assert.False(t, indices[1].Fallback)
}

func TestGetIndex(t *testing.T) {
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"GLOBAL_QUOTE:SPY": json.RawMessage(spyQuoteFixture),
		},
	}
	svc := newTestService(testCatalogue(), q)

	idx, ok := svc.GetIndex(context.Background(), "sp500")
	require.True(t, ok)
	assert.Equal(t, "$150.00", idx.Value)

	_, ok = svc.GetIndex(context.Background(), "nope")
	assert.False(t, ok)
}

func TestFetchTimeSeries_IntervalMapping(t *testing.T) {
	daily := `{
		"Time Series (Daily)": {
			"2024-01-03": {"1. open": "148", "2. high": "151", "3. low": "147.5", "4. close": "150", "5. volume": "1000000"},
			"2024-01-02": {"1. open": "146", "2. high": "148.5", "3. low": "145.8", "4. close": "147.5", "5. volume": "900000"}
		}
	}`
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"TIME_SERIES_DAILY:SPY": json.RawMessage(daily),
		},
	}
	svc := newTestService(testCatalogue(), q)

	points, err := svc.FetchTimeSeries(context.Background(), "SPY", "daily")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2024-01-02", points[0].Date)
	assert.Equal(t, 150.0, points[1].Close)
}

// countingPublisher records the IDs handed to it.
type countingPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *countingPublisher) PublishIndexUpdate(idx *models.DisplayIndex) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, idx.ID)
	return nil
}

func TestGetAllIndices_PublishesSuccessfulRecords(t *testing.T) {
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"GLOBAL_QUOTE:SPY": json.RawMessage(spyQuoteFixture),
		},
	}
	pub := &countingPublisher{}
	catalogue := []models.InstrumentConfig{testCatalogue()[0], testCatalogue()[1]}
	svc := newTestService(catalogue, q, WithPublisher(pub))

	svc.GetAllIndices(context.Background())

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{"sp500"}, pub.ids, "fallback records are not published")
}

// historyRecorder serves canned recorded closes alongside write support.
type historyRecorder struct {
	closes []float64
}

func (r *historyRecorder) WriteQuote(context.Context, models.DataFamily, *models.NormalizedQuote) error {
	return nil
}

func (r *historyRecorder) RecentCloses(context.Context, string, int) ([]float64, error) {
	return r.closes, nil
}

func TestGetAllIndices_SparklineFromRecordedHistory(t *testing.T) {
	q := &stubQuerier{
		payloads: map[string]json.RawMessage{
			"GLOBAL_QUOTE:SPY": json.RawMessage(spyQuoteFixture),
		},
	}
	closes := make([]float64, SparklinePoints)
	for i := range closes {
		closes[i] = 140 + float64(i)/2
	}
	svc := newTestService(testCatalogue()[:1], q, WithRecorder(&historyRecorder{closes: closes}))

	indices := svc.GetAllIndices(context.Background())
	require.Len(t, indices, 1)
	assert.Equal(t, closes, indices[0].Sparkline)
}

func TestFallback_RecordShape(t *testing.T) {
	cfg := testCatalogue()[0]
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

	idx := Fallback(cfg, now)
	assert.Equal(t, "sp500", idx.ID)
	assert.Equal(t, "N/A", idx.Value)
	assert.Equal(t, 450.0, idx.Price)
	assert.Equal(t, int64(45000), idx.CurrentValue)
	assert.Equal(t, "+0.00%", idx.Change)
	assert.True(t, idx.IsPositive)
	assert.Equal(t, "—", idx.Volume)
	assert.Equal(t, "2024-01-03", idx.LastUpdated)
	assert.Len(t, idx.Sparkline, SparklinePoints)
	assert.True(t, idx.Fallback)
}
