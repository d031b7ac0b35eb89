package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"apparel-configurator/internal/config"
	"apparel-configurator/internal/pricing"
)

const statsCacheKey = "quote_stats"

var ErrQuoteNotFound = errors.New("quote not found")

// Cache is the subset of the Redis client the store uses for statistics.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type PostgresStorage struct {
	db     *sqlx.DB
	cache  Cache
	logger *zap.Logger
}

// Quote is one computed price, stored for reporting.
type Quote struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	ProductID        string          `db:"product_id" json:"productId"`
	DecorationMethod string          `db:"decoration_method" json:"decorationMethod"`
	Quantity         float64         `db:"quantity" json:"quantity"`
	ColorCounts      pq.Float64Array `db:"color_counts" json:"colorCounts"`
	LocationCount    float64         `db:"location_count" json:"locationCount"`
	EachItem         decimal.Decimal `db:"each_item" json:"eachItem"`
	SetupFee         decimal.Decimal `db:"setup_fee" json:"setupFee"`
	Total            decimal.Decimal `db:"total" json:"total"`
	Overridden       bool            `db:"overridden" json:"overridden"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}

// NewQuote builds a record from a validated request and its result.
func NewQuote(req pricing.Request, res pricing.Result, overridden bool, now time.Time) Quote {
	q := Quote{
		ID:               uuid.New(),
		ProductID:        req.ProductID,
		DecorationMethod: string(req.DecorationMethod),
		ColorCounts:      pq.Float64Array(append([]float64{}, req.ColorCounts...)),
		EachItem:         decimal.NewFromFloat(res.EachItem),
		SetupFee:         decimal.NewFromFloat(res.SetupFee),
		Total:            decimal.NewFromFloat(res.Total),
		Overridden:       overridden,
		CreatedAt:        now.UTC(),
	}
	if req.Quantity != nil {
		q.Quantity = *req.Quantity
	}
	if req.LocationCount != nil {
		q.LocationCount = *req.LocationCount
	}
	return q
}

func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, cache Cache, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = cfg.ConnectTimeout
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name))

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{
		db:     db,
		cache:  cache,
		logger: logger,
	}, nil
}

// DB exposes the underlying handle for migrations.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStorage) SaveQuote(ctx context.Context, q Quote) error {
	const operation = "storage.SaveQuote"

	const query = `
		INSERT INTO quotes (
			id, product_id, decoration_method, quantity, color_counts,
			location_count, each_item, setup_fee, total, overridden, created_at
		) VALUES (
			:id, :product_id, :decoration_method, :quantity, :color_counts,
			:location_count, :each_item, :setup_fee, :total, :overridden, :created_at
		)
	`
	if _, err := s.db.NamedExecContext(ctx, query, q); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	s.dropStats(ctx)
	return nil
}

func (s *PostgresStorage) GetQuote(ctx context.Context, id uuid.UUID) (*Quote, error) {
	const operation = "storage.GetQuote"

	const query = `SELECT * FROM quotes WHERE id = $1`

	var q Quote
	if err := s.db.GetContext(ctx, &q, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", operation, ErrQuoteNotFound)
		}
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return &q, nil
}

// ListQuotes returns the newest quotes first.
func (s *PostgresStorage) ListQuotes(ctx context.Context, limit int) ([]Quote, error) {
	const operation = "storage.ListQuotes"

	const query = `SELECT * FROM quotes ORDER BY created_at DESC LIMIT $1`

	quotes := []Quote{}
	if err := s.db.SelectContext(ctx, &quotes, query, limit); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return quotes, nil
}

type MethodStatistics struct {
	Count int             `json:"count" db:"count"`
	Total decimal.Decimal `json:"total" db:"total"`
}

type QuoteStatistics struct {
	TotalQuotes int                         `json:"totalQuotes" db:"total_quotes"`
	TotalValue  decimal.Decimal             `json:"totalValue" db:"total_value"`
	TodayQuotes int                         `json:"todayQuotes" db:"today_quotes"`
	Overridden  int                         `json:"overridden" db:"overridden"`
	ByMethod    map[string]MethodStatistics `json:"byMethod" db:"-"`
}

func (s *PostgresStorage) GetQuoteStatistics(ctx context.Context) (*QuoteStatistics, error) {
	const operation = "storage.GetQuoteStatistics"

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, statsCacheKey); err == nil {
			var stats QuoteStatistics
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats := &QuoteStatistics{ByMethod: map[string]MethodStatistics{}}

	err := s.db.GetContext(ctx, stats, `
		SELECT
			COUNT(*) AS total_quotes,
			COALESCE(SUM(total), 0) AS total_value,
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE) AS today_quotes,
			COUNT(*) FILTER (WHERE overridden) AS overridden
		FROM quotes
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: totals: %w", operation, err)
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT decoration_method, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total
		FROM quotes
		GROUP BY decoration_method
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: by method: %w", operation, err)
	}
	defer rows.Close()

	for rows.Next() {
		var method string
		var ms MethodStatistics
		if err := rows.Scan(&method, &ms.Count, &ms.Total); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", operation, err)
		}
		stats.ByMethod[method] = ms
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, data, time.Hour); err != nil {
				s.logger.Warn("Failed to cache quote statistics", zap.Error(err))
			}
		}
	}

	return stats, nil
}

func (s *PostgresStorage) dropStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate quote statistics", zap.Error(err))
	}
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
