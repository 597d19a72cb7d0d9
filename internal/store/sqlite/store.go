// Package sqlite persists candle history and the trade journal. Backtests
// read candle series from here; live trading appends both candles and
// fills.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// Store is a single-writer SQLite store opened in WAL mode.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (and, if needed, initializes) the database at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer discipline.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	log.Info("sqlite opened", "path", path)
	return &Store{db: db, log: log}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			ticker   TEXT    NOT NULL,
			interval TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			open     REAL    NOT NULL,
			high     REAL    NOT NULL,
			low      REAL    NOT NULL,
			close    REAL    NOT NULL,
			volume   REAL    NOT NULL,
			PRIMARY KEY (ticker, interval, ts)
		);

		CREATE TABLE IF NOT EXISTS trades (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			ts        INTEGER NOT NULL,
			ticker    TEXT    NOT NULL,
			type      TEXT    NOT NULL,
			price     REAL    NOT NULL,
			quantity  REAL    NOT NULL,
			amount    REAL    NOT NULL,
			profit    REAL    NOT NULL,
			reason    TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades (ts);
		CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades (ticker);
	`)
	return err
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// SaveCandles upserts a batch of candles in one transaction.
func (s *Store) SaveCandles(ctx context.Context, series model.Series) error {
	if series.Len() == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (ticker, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range series.Candles {
		if _, err := stmt.Exec(series.Ticker, string(series.Interval), c.TS.Unix(),
			c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Debug("candles saved", "ticker", series.Ticker, "count", series.Len())
	return nil
}

// ReadSeries loads candles for one ticker and interval, ordered oldest
// first. fromTS of zero loads everything.
func (s *Store) ReadSeries(ctx context.Context, ticker string, interval model.Interval, fromTS int64) (model.Series, error) {
	out := model.Series{Ticker: ticker, Interval: interval}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE ticker = ? AND interval = ? AND ts >= ?
		ORDER BY ts ASC
	`, ticker, string(interval), fromTS)
	if err != nil {
		return out, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Candle
		var ts int64
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return out, fmt.Errorf("sqlite scan candle: %w", err)
		}
		c.TS = time.Unix(ts, 0).UTC()
		out.Candles = append(out.Candles, c)
	}
	return out, rows.Err()
}

// LastTimestamp returns the newest stored candle timestamp, 0 when none.
func (s *Store) LastTimestamp(ctx context.Context, ticker string, interval model.Interval) (int64, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(ts) FROM candles WHERE ticker = ? AND interval = ?`,
		ticker, string(interval),
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
