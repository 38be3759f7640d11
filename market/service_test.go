package market

import (
	"testing"
	"time"
)

func TestServiceBookAndStaleness(t *testing.T) {
	svc := NewService()
	ts := time.Unix(1000, 0)
	bids := []Level{{100, 1}}
	svc.OnBook(TopOfBook{Symbol: "BTCUSDT", Bids: bids, Asks: []Level{{101, 1}}, Ts: ts})
	bids[0].Price = 1 // 调用方复用切片不影响已存快照

	if mid := svc.Mid("BTCUSDT"); mid != 100.5 {
		t.Fatalf("unexpected mid %f", mid)
	}
	if st := svc.Staleness("BTCUSDT", ts.Add(3*time.Second)); st != 3*time.Second {
		t.Fatalf("unexpected staleness %v", st)
	}
	if _, ok := svc.Book("ETHUSDT"); ok {
		t.Fatalf("unknown symbol should not have a book")
	}
	if svc.Mid("ETHUSDT") != 0 {
		t.Fatalf("unknown symbol mid should be 0")
	}
	if len(svc.Symbols()) != 1 {
		t.Fatalf("expected one symbol")
	}
}
