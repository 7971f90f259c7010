package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	symbol                 TEXT    NOT NULL,
	mint                   TEXT    NOT NULL DEFAULT '',
	ts_ms                  INTEGER NOT NULL,
	price_sol              REAL    NOT NULL,
	size                   REAL    NOT NULL DEFAULT 0,
	side                   INTEGER NOT NULL DEFAULT 0,
	virtual_token_reserves INTEGER NOT NULL DEFAULT 0,
	virtual_sol_reserves   INTEGER NOT NULL DEFAULT 0,
	curve_complete         INTEGER NOT NULL DEFAULT 0,
	aura_score             REAL    NOT NULL DEFAULT 0,
	mentions               INTEGER NOT NULL DEFAULT 0,
	source                 TEXT    NOT NULL,
	PRIMARY KEY (symbol, ts_ms, source)
);
CREATE INDEX IF NOT EXISTS samples_ts ON samples (ts_ms);
`

// Store persists the synced dataset in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite dataset at path. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("dataset path is required")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create dataset dir: %w", err)
		}
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Append inserts one sample; duplicate (symbol, ts, source) rows are ignored.
func (s *Store) Append(sample Sample) error {
	return s.AppendContext(context.Background(), sample)
}

// AppendContext inserts one sample under a context.
func (s *Store) AppendContext(ctx context.Context, sample Sample) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is not open")
	}
	if sample.Symbol == "" {
		return fmt.Errorf("sample symbol is required")
	}
	if sample.Source == "" {
		return fmt.Errorf("sample source is required")
	}
	complete := 0
	if sample.CurveComplete {
		complete = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO samples (
			symbol, mint, ts_ms, price_sol, size, side,
			virtual_token_reserves, virtual_sol_reserves, curve_complete,
			aura_score, mentions, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sample.Symbol,
		sample.Mint,
		toMillis(sample.Ts),
		sample.PriceSOL,
		sample.Size,
		sample.Side,
		int64(sample.VirtualTokenReserves),
		int64(sample.VirtualSolReserves),
		complete,
		sample.AuraScore,
		sample.Mentions,
		sample.Source,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// Range streams samples ordered by time, optionally bounded and filtered by symbol.
func (s *Store) Range(ctx context.Context, from, to time.Time, symbols []string) ([]Sample, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not open")
	}
	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "ts_ms >= ?")
		args = append(args, toMillis(from))
	}
	if !to.IsZero() {
		where = append(where, "ts_ms <= ?")
		args = append(args, toMillis(to))
	}
	if len(symbols) > 0 {
		placeholders := make([]string, len(symbols))
		for i, sym := range symbols {
			placeholders[i] = "?"
			args = append(args, sym)
		}
		where = append(where, "symbol IN ("+strings.Join(placeholders, ",")+")")
	}
	query := `SELECT symbol, mint, ts_ms, price_sol, size, side,
		virtual_token_reserves, virtual_sol_reserves, curve_complete,
		aura_score, mentions, source FROM samples`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts_ms ASC, symbol ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			sample   Sample
			tsMs     int64
			vTok     int64
			vSol     int64
			complete int
		)
		if err := rows.Scan(
			&sample.Symbol, &sample.Mint, &tsMs, &sample.PriceSOL, &sample.Size, &sample.Side,
			&vTok, &vSol, &complete, &sample.AuraScore, &sample.Mentions, &sample.Source,
		); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sample.Ts = fromMillis(tsMs)
		sample.VirtualTokenReserves = uint64(vTok)
		sample.VirtualSolReserves = uint64(vSol)
		sample.CurveComplete = complete != 0
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}

// Count reports the number of stored samples.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store is not open")
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// Symbols lists the distinct symbols present in the dataset.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not open")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM samples ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
