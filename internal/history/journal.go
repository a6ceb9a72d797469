package history

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Qwalex/IntradayBot/internal/signal"
	"github.com/Qwalex/IntradayBot/internal/telemetry"
)

// Journal drivers accepted by OpenJournal.
const (
	DriverNone   = "none"
	DriverJSONL  = "jsonl"
	DriverSQLite = "sqlite"
)

// OpenJournal returns the recorder for driver, or nil for DriverNone/empty.
func OpenJournal(driver, path string) (Recorder, error) {
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverJSONL:
		rec, err := NewJSONLRecorder(path)
		if err != nil {
			return nil, fmt.Errorf("open jsonl journal: %w", err)
		}
		return rec, nil
	case DriverSQLite:
		rec, err := NewSQLiteJournal(path)
		if err != nil {
			return nil, err
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
}

// JournalObserver persists each trade; failures are logged and never reach the trading loop.
func JournalObserver(rec Recorder, log zerolog.Logger) telemetry.Observer {
	return telemetry.TradeFunc(func(t signal.TradeRecord) {
		if err := rec.Record(t); err != nil {
			log.Warn().Err(err).Str("trade_id", t.ID).Msg("journal write failed")
		}
	})
}
