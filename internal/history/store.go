// Package history aggregates realized trades for the dashboard and optionally journals them to disk.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/Qwalex/IntradayBot/internal/signal"
)

const (
	// DefaultCapacity bounds how many trades the store retains.
	DefaultCapacity = 200
	// RecentTrades is how many trades a snapshot lists.
	RecentTrades = 50
)

// Stats summarizes the retained trades.
type Stats struct {
	TotalTrades int                  `json:"totalTrades"`
	BuyCount    int                  `json:"buyCount"`
	SellCount   int                  `json:"sellCount"`
	Volume      float64              `json:"volume"`
	LastTrades  []signal.TradeRecord `json:"lastTrades"`
}

// Store keeps the most recent trades in memory.
type Store struct {
	mu       sync.Mutex
	capacity int
	trades   []signal.TradeRecord
}

// NewStore creates an empty store retaining at most capacity trades.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, trades: make([]signal.TradeRecord, 0, capacity)}
}

// Add appends a trade, evicting the oldest beyond capacity.
func (s *Store) Add(rec signal.TradeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, rec)
	if over := len(s.trades) - s.capacity; over > 0 {
		s.trades = append(s.trades[:0], s.trades[over:]...)
	}
}

// Snapshot returns counts over the retained trades and the newest ones first.
func (s *Store) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{TotalTrades: len(s.trades)}
	for _, t := range s.trades {
		switch t.Side {
		case signal.SideBuy:
			stats.BuyCount++
		case signal.SideSell:
			stats.SellCount++
		}
		stats.Volume += t.Qty
	}
	n := len(s.trades)
	if n > RecentTrades {
		n = RecentTrades
	}
	stats.LastTrades = make([]signal.TradeRecord, 0, n)
	for i := len(s.trades) - 1; i >= len(s.trades)-n; i-- {
		stats.LastTrades = append(stats.LastTrades, s.trades[i])
	}
	return stats
}

// TradeSource returns recent trades, newest first.
type TradeSource interface {
	LastN(ctx context.Context, n int) ([]signal.TradeRecord, error)
}

// Restore replaces the retained trades with the newest ones from src.
func (s *Store) Restore(ctx context.Context, src TradeSource) error {
	recent, err := src.LastN(ctx, s.capacity)
	if err != nil {
		return fmt.Errorf("restore trades: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = s.trades[:0]
	for i := len(recent) - 1; i >= 0; i-- {
		s.trades = append(s.trades, recent[i])
	}
	return nil
}

// OnLog is a no-op; the store only aggregates trades.
func (s *Store) OnLog(string, string, map[string]any) {}

// OnTrade records the trade.
func (s *Store) OnTrade(rec signal.TradeRecord) { s.Add(rec) }
