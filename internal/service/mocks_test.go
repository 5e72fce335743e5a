package service

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/smart-trolley/internal/backend"
	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/fjod/go_cart/smart-trolley/internal/mirror"
	"github.com/shopspring/decimal"
)

type product struct {
	name  string
	price int64
}

// MockBackend keeps a tiny authoritative cart and counts every call.
type MockBackend struct {
	mu       sync.Mutex
	catalog  map[string]product
	order    []string
	qty      map[string]int
	calls    map[string]int
	cartErr  error
	scanErr  error
	scanResp *backend.ActionResult
	rmResp   *backend.ActionResult
	rmErr    error
	payResp  *backend.ActionResult
	payErr   error
	doneResp *backend.ActionResult
	qr       []byte
	secResp  *backend.ActionResult
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		catalog: map[string]product{
			"123":           {name: "Milk", price: 2},
			"8901719134852": {name: "Parle-G", price: 10},
		},
		qty:   map[string]int{},
		calls: map[string]int{},
	}
}

func (m *MockBackend) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockBackend) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *MockBackend) put(barcode string) {
	if m.qty[barcode] == 0 {
		m.order = append(m.order, barcode)
	}
	m.qty[barcode]++
}

func (m *MockBackend) GetCart(_ context.Context) (*domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["cart"]++
	if m.cartErr != nil {
		return nil, m.cartErr
	}

	snapshot := domain.EmptySnapshot()
	for _, barcode := range m.order {
		q := m.qty[barcode]
		if q == 0 {
			continue
		}
		p := m.catalog[barcode]
		unit := decimal.NewFromInt(p.price)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(q)))
		snapshot.Lines = append(snapshot.Lines, domain.CartLine{
			Barcode:   barcode,
			Name:      p.name,
			UnitPrice: unit,
			Quantity:  q,
			LineTotal: lineTotal,
		})
		snapshot.Total = snapshot.Total.Add(lineTotal)
	}
	return snapshot, nil
}

func (m *MockBackend) Scan(_ context.Context, barcode string) (*backend.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["scan"]++
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	if m.scanResp != nil {
		return m.scanResp, nil
	}
	p, ok := m.catalog[barcode]
	if !ok {
		return &backend.ActionResult{OK: false, Code: "UNKNOWN_BARCODE", Message: "Barcode " + barcode + " not found"}, nil
	}
	m.put(barcode)
	return &backend.ActionResult{OK: true, Name: p.name, Barcode: barcode}, nil
}

func (m *MockBackend) RemoveOne(_ context.Context, barcode string) (*backend.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["remove"]++
	if m.rmErr != nil {
		return nil, m.rmErr
	}
	if m.rmResp != nil {
		return m.rmResp, nil
	}
	if m.qty[barcode] == 0 {
		return &backend.ActionResult{OK: false, Code: "NOT_IN_CART", Message: "Item not in cart"}, nil
	}
	m.qty[barcode]--
	return &backend.ActionResult{OK: true, Message: "Removed " + m.catalog[barcode].name}, nil
}

func (m *MockBackend) StartPayment(_ context.Context) (*backend.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["start-payment"]++
	return m.payResp, m.payErr
}

func (m *MockBackend) PaymentDone(_ context.Context) (*backend.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["payment-done"]++
	return m.doneResp, nil
}

func (m *MockBackend) PaymentQR(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["payment-qr"]++
	if m.qr == nil {
		return nil, backend.ErrUnexpectedStatus
	}
	return m.qr, nil
}

func (m *MockBackend) SecurityCheck(_ context.Context, passkey string, _ bool) (*backend.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["security"]++
	if m.secResp != nil {
		return m.secResp, nil
	}
	if passkey != "1234" {
		return &backend.ActionResult{OK: false, Code: "WRONG_PASSKEY"}, nil
	}
	m.qty = map[string]int{}
	m.order = nil
	return &backend.ActionResult{OK: true, Message: "Payment verified. Cart cleared!"}, nil
}

// MockReporter records every status it is given.
type MockReporter struct {
	mu       sync.Mutex
	statuses []domain.Status
}

func (r *MockReporter) Report(s domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *MockReporter) All() []domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Status(nil), r.statuses...)
}

type MockJournal struct {
	mu      sync.Mutex
	entries []domain.Activity
	err     error
}

func (j *MockJournal) Record(_ context.Context, a domain.Activity) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, a)
	return j.err
}

func (j *MockJournal) Entries() []domain.Activity {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.Activity(nil), j.entries...)
}

type fixture struct {
	backend  *MockBackend
	mirror   *mirror.Mirror
	reporter *MockReporter
	journal  *MockJournal
	deps     Deps
}

func newFixture() *fixture {
	b := NewMockBackend()
	m := mirror.New(b)
	r := &MockReporter{}
	j := &MockJournal{}
	return &fixture{
		backend:  b,
		mirror:   m,
		reporter: r,
		journal:  j,
		deps: Deps{
			Mirror:    m,
			Gate:      NewGate(),
			Reporter:  r,
			Journal:   j,
			TrolleyID: "trolley-test",
		},
	}
}
