package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/Qwalex/IntradayBot/internal/signal"
)

// SQLiteJournal stores every trade in a local SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the database at path in WAL mode.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			ts INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			qty REAL NOT NULL,
			price REAL NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create trades table: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Record inserts one trade.
func (j *SQLiteJournal) Record(rec signal.TradeRecord) error {
	_, err := j.db.Exec(
		"INSERT INTO trades (id, ts, symbol, side, qty, price) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Time.UnixMilli(), rec.Symbol, string(rec.Side), rec.Qty, rec.Price,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// LastN returns up to n trades, newest first.
func (j *SQLiteJournal) LastN(ctx context.Context, n int) ([]signal.TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, ts, symbol, side, qty, price FROM trades ORDER BY ts DESC, rowid DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []signal.TradeRecord
	for rows.Next() {
		var (
			rec  signal.TradeRecord
			ts   int64
			side string
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Symbol, &side, &rec.Qty, &rec.Price); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		rec.Time = time.UnixMilli(ts)
		rec.Side = signal.Side(side)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *SQLiteJournal) Close() error { return j.db.Close() }
