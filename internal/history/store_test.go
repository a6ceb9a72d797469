package history

import (
	"fmt"
	"testing"

	"github.com/Qwalex/IntradayBot/internal/signal"
)

func TestStoreSnapshotCounts(t *testing.T) {
	store := NewStore(0)
	store.OnTrade(signal.TradeRecord{ID: "1", Side: signal.SideBuy, Qty: 0.5})
	store.OnTrade(signal.TradeRecord{ID: "2", Side: signal.SideSell, Qty: 0.25})
	store.OnTrade(signal.TradeRecord{ID: "3", Side: signal.SideBuy, Qty: 0.25})

	snap := store.Snapshot()
	if snap.TotalTrades != 3 || snap.BuyCount != 2 || snap.SellCount != 1 {
		t.Fatalf("unexpected counts %+v", snap)
	}
	if snap.Volume != 1.0 {
		t.Fatalf("expected volume 1.0, got %v", snap.Volume)
	}
	if snap.LastTrades[0].ID != "3" || snap.LastTrades[2].ID != "1" {
		t.Fatalf("expected newest first, got %+v", snap.LastTrades)
	}
}

func TestStoreEvictsBeyondCapacity(t *testing.T) {
	store := NewStore(DefaultCapacity)
	for i := 0; i < DefaultCapacity+25; i++ {
		store.Add(signal.TradeRecord{ID: fmt.Sprint(i), Side: signal.SideBuy, Qty: 1})
	}
	snap := store.Snapshot()
	if snap.TotalTrades != DefaultCapacity {
		t.Fatalf("expected %d trades retained, got %d", DefaultCapacity, snap.TotalTrades)
	}
	if len(snap.LastTrades) != RecentTrades {
		t.Fatalf("expected %d recent trades, got %d", RecentTrades, len(snap.LastTrades))
	}
	if snap.LastTrades[0].ID != fmt.Sprint(DefaultCapacity+24) {
		t.Fatalf("unexpected newest trade %s", snap.LastTrades[0].ID)
	}
}
