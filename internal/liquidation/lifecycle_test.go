package liquidation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"clearance/internal/exchange"
)

type createCall struct {
	symbol string
	amount float64
	price  float64
}

type mockGateway struct {
	creates   []createCall
	cancels   int
	fetches   int
	histories int

	createFn  func(call createCall) (exchange.Order, error)
	cancelFn  func(id string) error
	fetchFn   func(id string) (exchange.Order, error)
	historyFn func(symbol string, since int64) ([]exchange.Order, error)
}

func (m *mockGateway) CreateLimitSell(ctx context.Context, symbol string, amount, price float64) (exchange.Order, error) {
	call := createCall{symbol: symbol, amount: amount, price: price}
	m.creates = append(m.creates, call)
	if m.createFn != nil {
		return m.createFn(call)
	}
	return exchange.Order{ID: fmt.Sprintf("order-%d", len(m.creates))}, nil
}

func (m *mockGateway) FetchOrder(ctx context.Context, id, symbol string) (exchange.Order, error) {
	m.fetches++
	if m.fetchFn != nil {
		return m.fetchFn(id)
	}
	return exchange.Order{ID: id, Remaining: 0}, nil
}

func (m *mockGateway) FetchOrdersSince(ctx context.Context, symbol string, since int64) ([]exchange.Order, error) {
	m.histories++
	if m.historyFn != nil {
		return m.historyFn(symbol, since)
	}
	return nil, nil
}

func (m *mockGateway) CancelOrder(ctx context.Context, id, symbol string) error {
	m.cancels++
	if m.cancelFn != nil {
		return m.cancelFn(id)
	}
	return nil
}

func timeoutErr() error {
	return fmt.Errorf("%w: request timed out", exchange.ErrTimeout)
}

func testOptions() Options {
	return Options{
		Dwell:               time.Millisecond,
		CancelRetryInterval: time.Millisecond,
		Budget:              Budget{Create: 2, Cancel: 2, Fetch: 2},
	}
}

func testTask() Task {
	return Task{
		Symbol: "CVC/BTC",
		Amount: 100,
		Ladder: []float64{0.00019, 0.000195, 0.0002},
	}
}

func TestRun_FullFillOnFirstStep(t *testing.T) {
	gw := &mockGateway{}
	lc := NewLifecycle(gw, testOptions(), nil)

	remaining, err := lc.Run(context.Background(), testTask())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected remaining 0, got %v", remaining)
	}

	if len(gw.creates) != 1 {
		t.Fatalf("expected 1 create, got %d", len(gw.creates))
	}
	if gw.creates[0].price != 0.0002 {
		t.Errorf("expected highest ladder price first, got %v", gw.creates[0].price)
	}
	if gw.cancels != 1 || gw.fetches != 1 {
		t.Errorf("expected one cancel and one fetch, got %d/%d", gw.cancels, gw.fetches)
	}
}

func TestRun_ConsumesLadderHighestFirstWithShrinkingAmount(t *testing.T) {
	remainders := []float64{60, 25, 25}
	gw := &mockGateway{}
	step := 0
	gw.fetchFn = func(id string) (exchange.Order, error) {
		rem := remainders[step]
		step++
		return exchange.Order{ID: id, Remaining: rem}, nil
	}

	lc := NewLifecycle(gw, testOptions(), nil)
	remaining, err := lc.Run(context.Background(), testTask())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if remaining != 25 {
		t.Errorf("expected remaining 25 after ladder exhausted, got %v", remaining)
	}

	wantPrices := []float64{0.0002, 0.000195, 0.00019}
	wantAmounts := []float64{100, 60, 25}
	if len(gw.creates) != len(wantPrices) {
		t.Fatalf("expected %d creates, got %d", len(wantPrices), len(gw.creates))
	}
	for i, call := range gw.creates {
		if call.price != wantPrices[i] {
			t.Errorf("create %d price = %v, want %v", i, call.price, wantPrices[i])
		}
		if call.amount != wantAmounts[i] {
			t.Errorf("create %d amount = %v, want %v", i, call.amount, wantAmounts[i])
		}
		if call.amount > wantAmounts[0] || (i > 0 && call.amount > gw.creates[i-1].amount) {
			t.Errorf("amount must be non-increasing, got %v", call.amount)
		}
	}
}

func TestSubmit_TimeoutAdoptsOrderFromHistory(t *testing.T) {
	gw := &mockGateway{}
	gw.createFn = func(call createCall) (exchange.Order, error) {
		return exchange.Order{}, timeoutErr()
	}
	gw.historyFn = func(symbol string, since int64) ([]exchange.Order, error) {
		return []exchange.Order{{ID: "stale"}, {ID: "adopted"}}, nil
	}
	gw.fetchFn = func(id string) (exchange.Order, error) {
		if id != "adopted" {
			t.Errorf("lifecycle should drive the adopted order, got %q", id)
		}
		return exchange.Order{ID: id, Remaining: 0}, nil
	}

	lc := NewLifecycle(gw, testOptions(), nil)
	remaining, err := lc.Run(context.Background(), testTask())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected remaining 0, got %v", remaining)
	}
	if len(gw.creates) != 1 {
		t.Errorf("expected no duplicate create after adoption, got %d creates", len(gw.creates))
	}
}

func TestSubmit_TimeoutWithoutHistoryExhaustsBudget(t *testing.T) {
	gw := &mockGateway{}
	gw.createFn = func(call createCall) (exchange.Order, error) {
		return exchange.Order{}, timeoutErr()
	}

	lc := NewLifecycle(gw, testOptions(), nil)
	_, err := lc.Run(context.Background(), testTask())
	if !errors.Is(err, ErrCreateOrder) {
		t.Fatalf("expected ErrCreateOrder, got %v", err)
	}
	if len(gw.creates) != 2 {
		t.Errorf("expected creates to stop at budget 2, got %d", len(gw.creates))
	}
}

func TestSubmit_ExchangeFailureIsTerminalWithoutRetry(t *testing.T) {
	gw := &mockGateway{}
	gw.createFn = func(call createCall) (exchange.Order, error) {
		return exchange.Order{}, fmt.Errorf("%w: insufficient funds", exchange.ErrExchange)
	}

	lc := NewLifecycle(gw, testOptions(), nil)
	_, err := lc.Run(context.Background(), testTask())
	if !errors.Is(err, ErrCreateOrder) {
		t.Fatalf("expected ErrCreateOrder, got %v", err)
	}
	if len(gw.creates) != 1 {
		t.Errorf("exchange failures must not be retried, got %d creates", len(gw.creates))
	}
}

func TestCancel_OrderNotFoundIsSuccess(t *testing.T) {
	gw := &mockGateway{}
	gw.cancelFn = func(id string) error {
		return fmt.Errorf("%w: already gone", exchange.ErrOrderNotFound)
	}

	lc := NewLifecycle(gw, testOptions(), nil)
	remaining, err := lc.Run(context.Background(), testTask())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected remaining 0, got %v", remaining)
	}
	if gw.cancels != 1 {
		t.Errorf("not-found cancel must not retry, got %d cancels", gw.cancels)
	}
}

func TestCancel_TimeoutExhaustsBudget(t *testing.T) {
	gw := &mockGateway{}
	gw.cancelFn = func(id string) error {
		return timeoutErr()
	}

	lc := NewLifecycle(gw, testOptions(), nil)
	_, err := lc.Run(context.Background(), testTask())
	if !errors.Is(err, ErrCancelOrder) {
		t.Fatalf("expected ErrCancelOrder, got %v", err)
	}
	if gw.cancels != 2 {
		t.Errorf("expected cancels to stop at budget 2, got %d", gw.cancels)
	}
}

func TestRemaining_FailureExhaustsBudget(t *testing.T) {
	gw := &mockGateway{}
	gw.fetchFn = func(id string) (exchange.Order, error) {
		return exchange.Order{}, fmt.Errorf("%w: flaky", exchange.ErrNetwork)
	}

	lc := NewLifecycle(gw, testOptions(), nil)
	_, err := lc.Run(context.Background(), testTask())
	if !errors.Is(err, ErrFetchOrder) {
		t.Fatalf("expected ErrFetchOrder, got %v", err)
	}
	if gw.fetches != 2 {
		t.Errorf("expected fetches to stop at budget 2, got %d", gw.fetches)
	}
}
