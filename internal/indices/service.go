// Package indices aggregates the instrument catalogue into display-ready
// index records: cache-first fetching, per-family normalization, and a
// fallback record for every instrument whose data is unusable.
package indices

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/index-back/internal/cache"
	"github.com/index-back/internal/normalize"
	"github.com/index-back/internal/upstream"
	"github.com/index-back/pkg/models"
)

// ErrBackoff signals that an instrument is inside its retry-not-before
// window; the default aggregation path must not re-attempt network I/O.
var ErrBackoff = errors.New("instrument is in retry backoff")

// Querier issues one classified upstream request. *upstream.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, req upstream.Request) (json.RawMessage, error)
}

// Publisher receives refreshed index records. *messaging.Publisher satisfies it.
type Publisher interface {
	PublishIndexUpdate(idx *models.DisplayIndex) error
}

// Recorder persists normalized observations. *database.InfluxClient satisfies it.
type Recorder interface {
	WriteQuote(ctx context.Context, family models.DataFamily, q *models.NormalizedQuote) error
}

// HistoryProvider is optionally implemented by recorders that can return
// previously recorded prices, oldest first. *database.InfluxClient satisfies it.
type HistoryProvider interface {
	RecentCloses(ctx context.Context, symbol string, limit int) ([]float64, error)
}

// Service is the index aggregator.
type Service struct {
	catalogue []models.InstrumentConfig
	client    Querier
	store     cache.Store
	publisher Publisher
	recorder  Recorder
	logger    *logrus.Entry

	now func() time.Time

	randMu sync.Mutex
	rng    *rand.Rand
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher attaches an update publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder attaches an observation recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithRand fixes the sparkline noise source, for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithNow fixes the clock, for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the aggregator over an immutable instrument catalogue.
func NewService(catalogue []models.InstrumentConfig, client Querier, store cache.Store, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		catalogue: catalogue,
		client:    client,
		store:     store,
		logger:    logger.WithField("component", "indices"),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalogue returns the configured instruments in display order.
func (s *Service) Catalogue() []models.InstrumentConfig {
	return s.catalogue
}

// GetAllIndices returns one DisplayIndex per configured instrument, in
// catalogue order. Every instrument resolves independently: a failure at any
// stage yields that instrument's fallback record and never disturbs the
// others, so the result length always equals the catalogue length.
func (s *Service) GetAllIndices(ctx context.Context) []models.DisplayIndex {
	return s.aggregate(ctx, false)
}

// RefreshAllIndices is GetAllIndices with cache freshness and backoff
// bypassed for every instrument.
func (s *Service) RefreshAllIndices(ctx context.Context) []models.DisplayIndex {
	return s.aggregate(ctx, true)
}

func (s *Service) aggregate(ctx context.Context, force bool) []models.DisplayIndex {
	results := make([]models.DisplayIndex, len(s.catalogue))

	var wg sync.WaitGroup
	for i, cfg := range s.catalogue {
		wg.Add(1)
		go func(i int, cfg models.InstrumentConfig) {
			defer wg.Done()
			results[i] = s.buildIndex(ctx, cfg, force)
		}(i, cfg)
	}
	wg.Wait()

	return results
}

// GetIndex resolves a single instrument by catalogue ID.
func (s *Service) GetIndex(ctx context.Context, id string) (models.DisplayIndex, bool) {
	for _, cfg := range s.catalogue {
		if cfg.ID == id {
			return s.buildIndex(ctx, cfg, false), true
		}
	}
	return models.DisplayIndex{}, false
}

// buildIndex resolves one instrument to a DisplayIndex, success or fallback.
// A panic inside the fetch path counts as a programming error: it is logged
// loudly but still degrades to fallback to keep the full-length contract.
func (s *Service) buildIndex(ctx context.Context, cfg models.InstrumentConfig, force bool) (out models.DisplayIndex) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"instrument": cfg.ID,
				"panic":      r,
			}).Error("Instrument task panicked, using fallback")
			out = Fallback(cfg, s.now())
		}
	}()

	quote, series, err := s.fetchInstrument(ctx, cfg, force)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"instrument": cfg.ID,
			"family":     cfg.Family,
		}).WithError(err).Warn("Live data unusable, using fallback")
		return Fallback(cfg, s.now())
	}

	idx := s.display(ctx, cfg, quote, series)

	if s.recorder != nil {
		if err := s.recorder.WriteQuote(ctx, cfg.Family, &quote); err != nil {
			s.logger.WithError(err).WithField("instrument", cfg.ID).Warn("Failed to record observation")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishIndexUpdate(&idx); err != nil {
			s.logger.WithError(err).WithField("instrument", cfg.ID).Warn("Failed to publish update")
		}
	}

	return idx
}

// fetchInstrument dispatches the family-appropriate fetch path. The returned
// series is optional trend data for the sparkline.
func (s *Service) fetchInstrument(ctx context.Context, cfg models.InstrumentConfig, force bool) (models.NormalizedQuote, []models.SeriesPoint, error) {
	switch cfg.Family {
	case models.FamilyStock:
		quote, err := s.fetchQuote(ctx, cfg.Symbol, force)
		return quote, nil, err

	case models.FamilyCrypto:
		return s.fetchCryptoDaily(ctx, cfg.Symbol, force)

	case models.FamilyForex:
		quote, err := s.fetchForexRate(ctx, cfg.FromSymbol, cfg.ToSymbol, cfg.NominalChangePct, force)
		return quote, nil, err

	case models.FamilyCommodity, models.FamilyEconomic:
		quote, err := s.fetchIndicator(ctx, cfg.Function, cfg.Symbol, force)
		return quote, nil, err

	case models.FamilyIntelligence:
		quote, err := s.fetchTopMover(ctx, force)
		return quote, nil, err

	default:
		// Unknown family is a programming error; fail loudly in development.
		s.logger.WithFields(logrus.Fields{
			"instrument": cfg.ID,
			"family":     cfg.Family,
		}).Error("Instrument has no configured data family")
		return models.NormalizedQuote{}, nil, errors.New("unknown data family: " + string(cfg.Family))
	}
}

// cachedQuery runs the cache-first fetch protocol for one upstream request:
// fresh cache hit wins, active backoff short-circuits, and failures are
// booked against the key before propagating.
func (s *Service) cachedQuery(ctx context.Context, key cache.Key, req upstream.Request, force bool) (json.RawMessage, error) {
	if !force {
		if s.store.ShouldUseCache(ctx, key) {
			if e, ok := s.store.Get(ctx, key); ok && len(e.Payload) > 0 {
				return e.Payload, nil
			}
		}
		if s.store.InBackoff(ctx, key) {
			return nil, ErrBackoff
		}
	}

	payload, err := s.client.Query(ctx, req)
	if err != nil {
		s.store.MarkFailedRequest(ctx, key)
		return nil, err
	}

	s.store.Put(ctx, key, payload)
	return payload, nil
}

// FetchQuote returns the normalized realtime quote for one symbol.
func (s *Service) FetchQuote(ctx context.Context, symbol string) (models.NormalizedQuote, error) {
	return s.fetchQuote(ctx, symbol, false)
}

func (s *Service) fetchQuote(ctx context.Context, symbol string, force bool) (models.NormalizedQuote, error) {
	key := cache.Key{Symbol: symbol, Function: "GLOBAL_QUOTE"}
	payload, err := s.cachedQuery(ctx, key, upstream.Request{
		Function: "GLOBAL_QUOTE",
		Symbol:   symbol,
	}, force)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	return normalize.Quote(payload)
}

// FetchTimeSeries returns the normalized historical series for one symbol.
// Interval chooses the endpoint: "daily", "weekly", "monthly", or an
// intraday granularity like "5min".
func (s *Service) FetchTimeSeries(ctx context.Context, symbol, interval string) ([]models.SeriesPoint, error) {
	function, reqInterval := seriesFunction(interval)

	key := cache.Key{Symbol: symbol, Function: function, Interval: reqInterval}
	payload, err := s.cachedQuery(ctx, key, upstream.Request{
		Function:   function,
		Symbol:     symbol,
		Interval:   reqInterval,
		OutputSize: "compact",
	}, false)
	if err != nil {
		return nil, err
	}
	return normalize.TimeSeries(payload, function, reqInterval)
}

// seriesFunction maps a requested interval to the endpoint function.
func seriesFunction(interval string) (function, reqInterval string) {
	switch strings.ToLower(interval) {
	case "", "daily":
		return "TIME_SERIES_DAILY", ""
	case "weekly":
		return "TIME_SERIES_WEEKLY", ""
	case "monthly":
		return "TIME_SERIES_MONTHLY", ""
	default:
		return "TIME_SERIES_INTRADAY", interval
	}
}

// FetchForexRate returns the normalized realtime rate for a currency pair.
// The change fields carry the policy-chosen nominal approximation.
func (s *Service) FetchForexRate(ctx context.Context, from, to string, nominalChangePct float64) (models.NormalizedQuote, error) {
	return s.fetchForexRate(ctx, from, to, nominalChangePct, false)
}

func (s *Service) fetchForexRate(ctx context.Context, from, to string, nominalChangePct float64, force bool) (models.NormalizedQuote, error) {
	key := cache.Key{Symbol: from + to, Function: "CURRENCY_EXCHANGE_RATE"}
	payload, err := s.cachedQuery(ctx, key, upstream.Request{
		Function:   "CURRENCY_EXCHANGE_RATE",
		FromSymbol: from,
		ToSymbol:   to,
	}, force)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	return normalize.ExchangeRate(payload, nominalChangePct)
}

// FetchCryptoDaily returns the normalized daily quote for a crypto symbol.
func (s *Service) FetchCryptoDaily(ctx context.Context, symbol string) (models.NormalizedQuote, error) {
	quote, _, err := s.fetchCryptoDaily(ctx, symbol, false)
	return quote, err
}

func (s *Service) fetchCryptoDaily(ctx context.Context, symbol string, force bool) (models.NormalizedQuote, []models.SeriesPoint, error) {
	key := cache.Key{Symbol: symbol, Function: "DIGITAL_CURRENCY_DAILY"}
	payload, err := s.cachedQuery(ctx, key, upstream.Request{
		Function: "DIGITAL_CURRENCY_DAILY",
		Symbol:   symbol,
		Extra:    map[string]string{"market": "USD"},
	}, force)
	if err != nil {
		return models.NormalizedQuote{}, nil, err
	}

	quote, err := normalize.CryptoDaily(payload, symbol)
	if err != nil {
		return models.NormalizedQuote{}, nil, err
	}

	// The same payload doubles as sparkline history.
	series, err := normalize.TimeSeries(payload, "DIGITAL_CURRENCY_DAILY", "")
	if err != nil {
		series = nil
	}

	return quote, series, nil
}

// FetchIndicator returns the normalized latest observation of a commodity or
// economic-indicator series.
func (s *Service) FetchIndicator(ctx context.Context, function, symbol string) (models.NormalizedQuote, error) {
	return s.fetchIndicator(ctx, function, symbol, false)
}

func (s *Service) fetchIndicator(ctx context.Context, function, symbol string, force bool) (models.NormalizedQuote, error) {
	key := cache.Key{Symbol: symbol, Function: function}
	payload, err := s.cachedQuery(ctx, key, upstream.Request{
		Function: function,
		Extra:    map[string]string{"interval": "monthly"},
	}, force)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	return normalize.IndicatorSeries(payload, symbol)
}

// FetchTopMovers returns the normalized representative of the market
// intelligence endpoint.
func (s *Service) FetchTopMovers(ctx context.Context) (models.NormalizedQuote, error) {
	return s.fetchTopMover(ctx, false)
}

func (s *Service) fetchTopMover(ctx context.Context, force bool) (models.NormalizedQuote, error) {
	key := cache.Key{Symbol: "MARKET", Function: "TOP_GAINERS_LOSERS"}
	payload, err := s.cachedQuery(ctx, key, upstream.Request{
		Function: "TOP_GAINERS_LOSERS",
	}, force)
	if err != nil {
		return models.NormalizedQuote{}, err
	}
	return normalize.TopMover(payload)
}

// display merges catalogue metadata with normalized data into the final
// record.
func (s *Service) display(ctx context.Context, cfg models.InstrumentConfig, quote models.NormalizedQuote, series []models.SeriesPoint) models.DisplayIndex {
	return models.DisplayIndex{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Symbol:   cfg.Symbol,
		Category: cfg.Category,
		Family:   cfg.Family,
		Icon:     cfg.Icon,
		Color:    cfg.Color,
		Handle:   cfg.Handle,

		CurrentValue: scaledValue(quote.Price),
		Value:        formatValue(quote.Price),
		Price:        quote.Price,

		Change:      formatChange(quote.ChangePercent),
		ChangeValue: quote.Change,
		IsPositive:  quote.Change >= 0,

		Sparkline:   s.sparklineFor(ctx, quote, series),
		Volume:      formatVolume(quote.Volume),
		LastUpdated: quote.LatestDay,
	}
}

// sparklineFor prefers real history: the live series first, then previously
// recorded closes, synthesizing a trend series only when neither covers the
// fixed point count.
func (s *Service) sparklineFor(ctx context.Context, quote models.NormalizedQuote, series []models.SeriesPoint) []float64 {
	if len(series) >= SparklinePoints {
		points := make([]float64, SparklinePoints)
		tail := series[len(series)-SparklinePoints:]
		for i, p := range tail {
			points[i] = p.Close
		}
		return points
	}

	if hp, ok := s.recorder.(HistoryProvider); ok {
		closes, err := hp.RecentCloses(ctx, quote.Symbol, SparklinePoints)
		if err == nil && len(closes) >= SparklinePoints {
			return closes[len(closes)-SparklinePoints:]
		}
	}

	s.randMu.Lock()
	defer s.randMu.Unlock()
	return SynthesizeSparkline(quote.Price, quote.ChangePercent, SparklinePoints, s.rng)
}
