package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AlphaFusion/internal/domain/models"
	domrepo "AlphaFusion/internal/domain/repository"
	pkgch "AlphaFusion/pkg/clickhouse"
	applogger "AlphaFusion/pkg/logger"
	"AlphaFusion/pkg/util"
)

var (
	_ domrepo.CandleSource = (*CHCandleSource)(nil)
	_ domrepo.RangeFetcher = (*CHCandleSource)(nil)
)

// CHCandleSource reads OHLCV bars from a ClickHouse table keyed by
// (symbol, interval, ts). It is the alternative to the Yahoo feed when bars
// are ingested by another pipeline.
type CHCandleSource struct {
	db    *sql.DB
	table string
	now   func() time.Time
	l     *applogger.Logger
}

func NewCHCandleSource(ch *pkgch.Client, table string) *CHCandleSource {
	return &CHCandleSource{db: ch.DB(), table: qualify(ch.Database(), table), now: time.Now, l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (s *CHCandleSource) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// CandlesSchema returns the DDL for the candles table.
func CandlesSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            symbol   LowCardinality(String),
            interval LowCardinality(String),
            ts       DateTime64(3, 'UTC'),
            open     Float64,
            high     Float64,
            low      Float64,
            close    Float64,
            volume   Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, interval, ts)`, qualify(database, table)),
	}
}

func (s *CHCandleSource) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ts, symbol, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND interval = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, s.table)
	out, err := s.query(ctx, q, symbol, string(tf), from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse get_candles error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get candles: %w", err)
	}
	s.l.Debug("clickhouse get_candles ok",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHCandleSource) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	q := fmt.Sprintf(`
        SELECT ts, symbol, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND interval = ?
        ORDER BY ts DESC
        LIMIT ?
    `, s.table)
	out, err := s.query(ctx, q, symbol, string(tf), n)
	if err != nil {
		s.l.Error("clickhouse latest_candles error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Int("limit", n),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	reverseCandles(out)
	return out, nil
}

// FetchCandles serves the HistoryLoader: bars of tf within rng of now.
func (s *CHCandleSource) FetchCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, rng string) ([]models.Candle, error) {
	lookback := domrepo.RangeDuration(rng)
	if lookback <= 0 {
		return nil, fmt.Errorf("unsupported range %q", rng)
	}
	now := s.now()
	// Only the lower bound is aligned; the forming bar stays in range.
	from, _ := util.AlignFromTo(now.Add(-lookback), now, string(tf))
	return s.GetCandles(ctx, symbol, from, now, tf)
}

func (s *CHCandleSource) query(ctx context.Context, q string, args ...interface{}) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 256)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Time, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		if c.Complete() {
			out = append(out, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func reverseCandles(c []models.Candle) {
	for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
		c[i], c[j] = c[j], c[i]
	}
}

func qualify(database, table string) string {
	if database == "" {
		return table
	}
	return database + "." + table
}
