// Package messaging publishes refreshed index records so other services can
// react to market-data updates without polling the API.
package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/index-back/pkg/config"
	"github.com/index-back/pkg/models"
)

// Publisher emits DisplayIndex updates on a JetStream-backed subject.
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the INDICES stream exists.
func NewPublisher(cfg *config.NATSConfig, logger *logrus.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     "INDICES",
		Subjects: []string{"indices.>"},
		Storage:  nats.MemoryStorage,
		MaxAge:   24 * time.Hour,
		MaxMsgs:  100000,
		Replicas: 1,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		conn.Close()
		return nil, fmt.Errorf("failed to create INDICES stream: %w", err)
	}

	return &Publisher{
		conn:   conn,
		js:     js,
		logger: logger.WithField("component", "nats"),
	}, nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() error {
	p.conn.Close()
	return nil
}

// IsConnected checks if NATS is connected.
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// PublishIndexUpdate publishes one refreshed index record on indices.<id>.
func (p *Publisher) PublishIndexUpdate(idx *models.DisplayIndex) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index update: %w", err)
	}

	subject := fmt.Sprintf("indices.%s", idx.ID)
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		return fmt.Errorf("failed to publish index update: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject": subject,
		"symbol":  idx.Symbol,
	}).Debug("Published index update")

	return nil
}
