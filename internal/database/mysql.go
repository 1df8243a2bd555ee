package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/index-back/pkg/config"
	"github.com/index-back/pkg/models"
)

// MySQLClient loads the instrument catalogue from MySQL. It is an optional
// collaborator; without it the built-in catalogue is used.
type MySQLClient struct {
	db     *sql.DB
	logger *logrus.Entry
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(cfg *config.MySQLConfig, dsn string, logger *logrus.Logger) (*MySQLClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &MySQLClient{
		db:     db,
		logger: logger.WithField("component", "mysql"),
	}, nil
}

// Close closes the database connection
func (mc *MySQLClient) Close() error {
	return mc.db.Close()
}

// Health checks database health
func (mc *MySQLClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return mc.db.PingContext(ctx)
}

// Instruments retrieves the configured instrument catalogue ordered by
// display position.
func (mc *MySQLClient) Instruments(ctx context.Context) ([]models.InstrumentConfig, error) {
	query := `
		SELECT id, name, symbol, category, family, icon, color, handle,
		       function_name, from_symbol, to_symbol, data_interval,
		       fallback_price, nominal_change_pct
		FROM instruments
		WHERE active = 1
		ORDER BY position ASC`

	rows, err := mc.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []models.InstrumentConfig
	for rows.Next() {
		var (
			ic                           models.InstrumentConfig
			family                       string
			function, from, to, interval sql.NullString
			fallbackPrice, nominalChange sql.NullFloat64
		)

		if err := rows.Scan(&ic.ID, &ic.Name, &ic.Symbol, &ic.Category, &family,
			&ic.Icon, &ic.Color, &ic.Handle,
			&function, &from, &to, &interval,
			&fallbackPrice, &nominalChange); err != nil {
			return nil, fmt.Errorf("failed to scan instrument row: %w", err)
		}

		ic.Family = models.DataFamily(family)
		ic.Function = function.String
		ic.FromSymbol = from.String
		ic.ToSymbol = to.String
		ic.Interval = interval.String
		ic.FallbackPrice = fallbackPrice.Float64
		ic.NominalChangePct = nominalChange.Float64

		instruments = append(instruments, ic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instrument rows: %w", err)
	}

	mc.logger.WithField("count", len(instruments)).Info("Loaded instrument catalogue from MySQL")
	return instruments, nil
}
