package monitor

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/smart-trolley/internal/backend"
	"github.com/fjod/go_cart/smart-trolley/internal/domain"
)

type monitorStep struct {
	result *backend.MonitorResult
	err    error
}

// MockAlertSource replays steps in order and then repeats the last one.
type MockAlertSource struct {
	mu    sync.Mutex
	steps []monitorStep
	calls int
}

func (m *MockAlertSource) Monitor(_ context.Context) (*backend.MonitorResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.steps) == 0 {
		return &backend.MonitorResult{}, nil
	}
	step := m.steps[min(m.calls-1, len(m.steps)-1)]
	if step.err != nil {
		return nil, step.err
	}
	if step.result == nil {
		return &backend.MonitorResult{}, nil
	}
	return step.result, nil
}

func (m *MockAlertSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockPresenter struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

func (p *MockPresenter) Present(alert domain.Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
}

func (p *MockPresenter) Alerts() []domain.Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Alert(nil), p.alerts...)
}

type MockSink struct {
	mu        sync.Mutex
	published []domain.Alert
	err       error
}

func (s *MockSink) Publish(_ context.Context, alert domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, alert)
	return s.err
}

func (s *MockSink) Published() []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Alert(nil), s.published...)
}

type MockHealth struct {
	mu        sync.Mutex
	succeeded map[string]int
	failed    map[string]int
}

func NewMockHealth() *MockHealth {
	return &MockHealth{succeeded: map[string]int{}, failed: map[string]int{}}
}

func (h *MockHealth) TickSucceeded(loop string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.succeeded[loop]++
}

func (h *MockHealth) TickFailed(loop string, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed[loop]++
}

func (h *MockHealth) Counts(loop string) (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.succeeded[loop], h.failed[loop]
}

type MockWeightSource struct {
	mu    sync.Mutex
	grams float64
	err   error
	calls int
}

func (m *MockWeightSource) Weight(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.grams, m.err
}

func (m *MockWeightSource) set(grams float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grams = grams
	m.err = err
}

func (m *MockWeightSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockDisplay struct {
	mu      sync.Mutex
	weights []domain.Weight
}

func (d *MockDisplay) ShowWeight(w domain.Weight) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.weights = append(d.weights, w)
}

func (d *MockDisplay) Last() (domain.Weight, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.weights) == 0 {
		return domain.Weight{}, false
	}
	return d.weights[len(d.weights)-1], true
}
