package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"AlphaFusion/internal/domain/models"
	domrepo "AlphaFusion/internal/domain/repository"
	applogger "AlphaFusion/pkg/logger"
)

var _ domrepo.Storage = (*ClickHouseStorage)(nil)

const resultColumns = "id, cycle_id, symbol, score, smoothed_score, confidence, signal, stop_price, close, " +
	"interval, data_mode, interpretation, valid_indicators, degraded, breakdown, indicators, error, bar_time, generated_at"

const resultColumnCount = 19

// ClickHouseStorage persists analysis results to ClickHouse.
type ClickHouseStorage struct {
	db       *sql.DB
	database string
	table    string
	l        *applogger.Logger
}

// NewClickHouseStorage creates result storage over db for database.table.
func NewClickHouseStorage(db *sql.DB, database, table string) *ClickHouseStorage {
	return &ClickHouseStorage{db: db, database: database, table: table, l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (s *ClickHouseStorage) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// ResultsSchema returns the DDL for the analysis results table.
func ResultsSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id               String,
            cycle_id         String,
            symbol           LowCardinality(String),
            score            Float64,
            smoothed_score   Float64,
            confidence       Float64,
            signal           LowCardinality(String),
            stop_price       Float64,
            close            Float64,
            interval         LowCardinality(String),
            data_mode        LowCardinality(String),
            interpretation   String,
            valid_indicators UInt16,
            degraded         Array(String),
            breakdown        String,
            indicators       String,
            error            String,
            bar_time         DateTime64(3, 'UTC'),
            generated_at     DateTime64(3, 'UTC')
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(generated_at)
        ORDER BY (symbol, generated_at)`, qualify(database, table)),
	}
}

// Init creates the results table when missing.
func (s *ClickHouseStorage) Init(ctx context.Context) error {
	for _, stmt := range ResultsSchema(s.database, s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init results schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.AnalysisResult) error {
	return s.StoreBatch(ctx, []*models.AnalysisResult{r})
}

// StoreBatch inserts results with multi-row VALUES statements, chunked to
// bound statement size. Nil results and results without a symbol are skipped.
func (s *ClickHouseStorage) StoreBatch(ctx context.Context, results []*models.AnalysisResult) error {
	const chunkSize = 500
	for start := 0; start < len(results); start += chunkSize {
		end := start + chunkSize
		if end > len(results) {
			end = len(results)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*resultColumnCount)
		for _, r := range results[start:end] {
			if r == nil || r.Symbol == "" {
				continue
			}
			row, err := resultArgs(r)
			if err != nil {
				return err
			}
			values = append(values, placeholders(resultColumnCount))
			args = append(args, row...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", qualify(s.database, s.table), resultColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert results", applogger.Int("rows", len(values)), applogger.Error(err))
			return fmt.Errorf("insert results: %w", err)
		}
	}
	return nil
}

// Query returns the newest results for symbol in [from, to], newest first.
func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AnalysisResult, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE symbol = ? AND generated_at >= ? AND generated_at <= ? ORDER BY generated_at DESC LIMIT ?",
		resultColumns, qualify(s.database, s.table))
	rows, err := s.db.QueryContext(ctx, q, symbol, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*models.AnalysisResult
	for rows.Next() {
		var (
			r          models.AnalysisResult
			signal     string
			valid      uint16
			breakdown  string
			indicators string
		)
		if err := rows.Scan(&r.ID, &r.CycleID, &r.Symbol, &r.Score, &r.SmoothedScore, &r.Confidence, &signal,
			&r.StopPrice, &r.Close, &r.Interval, &r.DataMode, &r.Interpretation, &valid, &r.Degraded,
			&breakdown, &indicators, &r.Error, &r.BarTime, &r.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Signal = models.Signal(signal)
		r.ValidIndicators = int(valid)
		if r.Breakdown, err = decodeFloatMap(breakdown); err != nil {
			return nil, err
		}
		if r.Indicators, err = decodeFloatMap(indicators); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the connection pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseStorage) Close() error {
	return nil
}

func resultArgs(r *models.AnalysisResult) ([]interface{}, error) {
	breakdown, err := encodeFloatMap(r.Breakdown)
	if err != nil {
		return nil, err
	}
	indicators, err := encodeFloatMap(r.Indicators)
	if err != nil {
		return nil, err
	}
	degraded := r.Degraded
	if degraded == nil {
		degraded = []string{}
	}
	valid := r.ValidIndicators
	if valid < 0 {
		valid = 0
	}
	return []interface{}{
		r.ID,
		r.CycleID,
		r.Symbol,
		models.Round(r.Score, 4),
		models.Round(r.SmoothedScore, 4),
		models.Round(r.Confidence, 4),
		r.Signal.String(),
		models.Round(r.StopPrice, 2),
		models.Round(r.Close, 4),
		r.Interval,
		r.DataMode,
		r.Interpretation,
		uint16(valid),
		degraded,
		breakdown,
		indicators,
		r.Error,
		r.BarTime.UTC(),
		r.GeneratedAt.UTC(),
	}, nil
}

// encodeFloatMap serializes a map after dropping non-finite values, which JSON cannot carry.
func encodeFloatMap(m map[string]float64) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	clean := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean[k] = models.Round(v, 6)
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encode map: %w", err)
	}
	return string(b), nil
}

func decodeFloatMap(s string) (map[string]float64, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	return m, nil
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
