package pathway

import (
	"context"
	"fmt"
	"math"
	"testing"

	"clearance/internal/exchange"
)

type fakeVenue struct {
	symbols []string
	books   map[string]exchange.OrderBookSnapshot
	fetched []string
}

func (f *fakeVenue) LoadMarkets(ctx context.Context) ([]string, error) {
	return f.symbols, nil
}

func (f *fakeVenue) FetchOrderBook(ctx context.Context, symbol string, depth int64) (exchange.OrderBookSnapshot, error) {
	f.fetched = append(f.fetched, symbol)
	book, ok := f.books[symbol]
	if !ok {
		return exchange.OrderBookSnapshot{}, fmt.Errorf("%w: no market %s", exchange.ErrExchange, symbol)
	}
	return book, nil
}

func book(bid, ask float64) exchange.OrderBookSnapshot {
	return exchange.OrderBookSnapshot{
		Bids: []exchange.OrderBookLevel{{Price: bid, Amount: 1}},
		Asks: []exchange.OrderBookLevel{{Price: ask, Amount: 1}},
	}
}

func newTestResolver(venue *fakeVenue) *Resolver {
	oracle := NewOracle(venue, 5, nil)
	return NewResolver(venue, oracle, nil)
}

func TestResolve_DirectMarketUsesBestAsk(t *testing.T) {
	venue := &fakeVenue{
		symbols: []string{"BTC/USDT"},
		books:   map[string]exchange.OrderBookSnapshot{"BTC/USDT": book(8990, 9000)},
	}

	prices, err := newTestResolver(venue).Resolve(context.Background(), "BTC", "USDT")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if len(prices) != 1 || prices[DirectKey] != 9000 {
		t.Fatalf("expected {direct: 9000}, got %v", prices)
	}
	if len(venue.fetched) != 1 || venue.fetched[0] != "BTC/USDT" {
		t.Errorf("expected a single direct book fetch, got %v", venue.fetched)
	}
}

func TestResolve_ReversedMarketUsesBestBid(t *testing.T) {
	venue := &fakeVenue{
		symbols: []string{"BTC/USDT"},
		books:   map[string]exchange.OrderBookSnapshot{"BTC/USDT": book(8990, 9000)},
	}

	prices, err := newTestResolver(venue).Resolve(context.Background(), "USDT", "BTC")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if len(prices) != 1 || prices[DirectKey] != 8990 {
		t.Fatalf("expected {direct: 8990}, got %v", prices)
	}
}

func TestResolve_TwoHopSellSell(t *testing.T) {
	venue := &fakeVenue{
		symbols: []string{"BTC/ETH", "ETH/USDT"},
		books: map[string]exchange.OrderBookSnapshot{
			"BTC/ETH":  book(29.8, 30),
			"ETH/USDT": book(298, 300),
		},
	}

	prices, err := newTestResolver(venue).Resolve(context.Background(), "BTC", "USDT")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if len(prices) != 1 {
		t.Fatalf("expected a single pathway, got %v", prices)
	}
	got, ok := prices["sell_ETH_sell"]
	if !ok {
		t.Fatalf("expected key sell_ETH_sell, got %v", prices)
	}
	if want := 30.0 * 300.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("implied price = %v, want %v", got, want)
	}
}

func TestResolve_TwoHopBuyLegUsesBestBid(t *testing.T) {
	// BTC 只能作为 ETH/BTC 的计价币，第一跳必须是 buy。
	venue := &fakeVenue{
		symbols: []string{"ETH/BTC", "ETH/USDT"},
		books: map[string]exchange.OrderBookSnapshot{
			"ETH/BTC":  book(0.033, 0.034),
			"ETH/USDT": book(298, 300),
		},
	}

	prices, err := newTestResolver(venue).Resolve(context.Background(), "BTC", "USDT")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	got, ok := prices["buy_ETH_sell"]
	if !ok {
		t.Fatalf("expected key buy_ETH_sell, got %v", prices)
	}
	if want := 0.033 * 300.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("implied price = %v, want %v", got, want)
	}
}

func TestResolve_NoPathwayReturnsEmptyMap(t *testing.T) {
	venue := &fakeVenue{
		symbols: []string{"XRP/EUR"},
		books:   map[string]exchange.OrderBookSnapshot{"XRP/EUR": book(0.4, 0.5)},
	}

	prices, err := newTestResolver(venue).Resolve(context.Background(), "BTC", "USDT")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("expected empty map, got %v", prices)
	}
}

func TestOracle_EmptySideFails(t *testing.T) {
	venue := &fakeVenue{
		books: map[string]exchange.OrderBookSnapshot{"BTC/USDT": {}},
	}
	oracle := NewOracle(venue, 5, nil)

	if _, err := oracle.BestPrice(context.Background(), "BTC/USDT", DirectionSell); err == nil {
		t.Fatal("expected error for empty ask side")
	}
}
