package database

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"

	"github.com/index-back/pkg/config"
	"github.com/index-back/pkg/models"
)

// InfluxClient records normalized observations as time-series points. It is
// an optional collaborator; aggregation works without it.
type InfluxClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
	logger   *logrus.Entry
}

// NewInfluxClient creates a new InfluxDB client
func NewInfluxClient(cfg *config.InfluxConfig, logger *logrus.Logger) (*InfluxClient, error) {
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(uint(cfg.Timeout.Seconds())),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach InfluxDB: %w", err)
	}

	return &InfluxClient{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
		logger:   logger.WithField("component", "influx"),
	}, nil
}

// Close closes the InfluxDB connection
func (ic *InfluxClient) Close() {
	ic.client.Close()
}

// WriteQuote records one normalized quote observation.
func (ic *InfluxClient) WriteQuote(ctx context.Context, family models.DataFamily, q *models.NormalizedQuote) error {
	point := influxdb2.NewPoint(
		"quotes",
		map[string]string{
			"symbol": q.Symbol,
			"family": string(family),
		},
		map[string]interface{}{
			"price":          q.Price,
			"change":         q.Change,
			"change_percent": q.ChangePercent,
			"volume":         q.Volume,
		},
		time.Now(),
	)

	if err := ic.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("failed to write quote point: %w", err)
	}
	return nil
}

// RecentCloses returns up to limit recorded prices for a symbol, oldest
// first, for sparkline history when no live series is available.
func (ic *InfluxClient) RecentCloses(ctx context.Context, symbol string, limit int) ([]float64, error) {
	flux := fmt.Sprintf(`
		from(bucket: %q)
		|> range(start: -30d)
		|> filter(fn: (r) => r._measurement == "quotes")
		|> filter(fn: (r) => r.symbol == %q)
		|> filter(fn: (r) => r._field == "price")
		|> sort(columns: ["_time"])
		|> tail(n: %d)`, ic.bucket, symbol, limit)

	result, err := ic.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent closes: %w", err)
	}
	defer result.Close()

	var closes []float64
	for result.Next() {
		if v, ok := result.Record().Value().(float64); ok {
			closes = append(closes, v)
		}
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("failed to read query result: %w", result.Err())
	}

	return closes, nil
}
