package sqlite

import (
	"fmt"
	"time"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// Record appends one fill to the trade journal. Store satisfies
// model.TradeSink so the position manager can journal directly.
func (s *Store) Record(rec model.TradeRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO trades (ts, ticker, type, price, quantity, amount, profit, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Timestamp.Unix(), rec.Ticker, rec.Type, rec.Price, rec.Quantity, rec.Amount, rec.Profit, rec.Reason)
	if err != nil {
		return fmt.Errorf("sqlite journal insert: %w", err)
	}
	return nil
}

// TradeHistory loads journal records newest last. fromTS of zero loads the
// full history.
func (s *Store) TradeHistory(fromTS int64) ([]model.TradeRecord, error) {
	rows, err := s.db.Query(`
		SELECT ts, ticker, type, price, quantity, amount, profit, reason
		FROM trades
		WHERE ts >= ?
		ORDER BY ts ASC, id ASC
	`, fromTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var rec model.TradeRecord
		var ts int64
		if err := rows.Scan(&ts, &rec.Ticker, &rec.Type, &rec.Price, &rec.Quantity,
			&rec.Amount, &rec.Profit, &rec.Reason); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
