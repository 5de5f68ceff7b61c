package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sutralabs/sutra/models"
)

// PostgresProvider reads bars from a `candles` table maintained by the
// external collection layer. sqlx connections are safe for concurrent
// use, so one provider can serve a whole sweep.
type PostgresProvider struct {
	db *sqlx.DB
}

// NewPostgresProvider opens a connection pool against the given DSN.
func NewPostgresProvider(dsn string) (*PostgresProvider, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open candle store: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping candle store: %w", err)
	}
	return &PostgresProvider{db: db}, nil
}

func (p *PostgresProvider) GetOHLCV(ctx context.Context, tickers []string, start, end time.Time) ([]models.Bar, error) {
	var bars []models.Bar
	err := p.db.SelectContext(ctx, &bars,
		`select ticker, timestamp, open, high, low, close, volume
		   from candles
		  where ticker = any($1) and timestamp >= $2 and timestamp <= $3
		  order by timestamp`,
		pq.Array(tickers),
		models.ToTimestamp(models.Day(start)),
		models.ToTimestamp(models.Day(end).Add(24*time.Hour-time.Millisecond)))
	if err != nil {
		return nil, fmt.Errorf("select candles: %w", err)
	}
	return bars, nil
}

func (p *PostgresProvider) TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	var stamps []int64
	err := p.db.SelectContext(ctx, &stamps,
		`select distinct timestamp from candles
		  where timestamp >= $1 and timestamp <= $2
		  order by timestamp`,
		models.ToTimestamp(models.Day(start)),
		models.ToTimestamp(models.Day(end).Add(24*time.Hour-time.Millisecond)))
	if err != nil {
		return nil, fmt.Errorf("select trading days: %w", err)
	}
	seen := make(map[time.Time]struct{})
	var days []time.Time
	for _, ts := range stamps {
		d := models.Day(time.UnixMilli(ts).UTC())
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			days = append(days, d)
		}
	}
	return days, nil
}

// Close releases the connection pool.
func (p *PostgresProvider) Close() error { return p.db.Close() }
