package http

import (
	"log"
	"sync"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
)

// AlertCapacity bounds the queue of unacknowledged alerts.
const AlertCapacity = 32

// StatusBoard holds the status line shown under the scan box.
type StatusBoard struct {
	mu     sync.RWMutex
	status domain.Status
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{}
}

func (b *StatusBoard) Report(status domain.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

func (b *StatusBoard) Current() domain.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// AlertBoard queues alerts until the shopper acknowledges them. The front-end
// shows the oldest one as a blocking popup.
type AlertBoard struct {
	mu      sync.Mutex
	alerts  []domain.Alert
	dropped int
}

func NewAlertBoard() *AlertBoard {
	return &AlertBoard{}
}

func (b *AlertBoard) Present(alert domain.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.alerts) == AlertCapacity {
		b.alerts = b.alerts[1:]
		b.dropped++
		log.Printf("alert queue full, dropped oldest (%d dropped so far)", b.dropped)
	}
	b.alerts = append(b.alerts, alert)
}

func (b *AlertBoard) List() []domain.Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Alert{}, b.alerts...)
}

// Ack removes the oldest alert and reports whether there was one.
func (b *AlertBoard) Ack() (domain.Alert, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.alerts) == 0 {
		return domain.Alert{}, false
	}
	alert := b.alerts[0]
	b.alerts = b.alerts[1:]
	return alert, true
}

func (b *AlertBoard) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.alerts)
}

// WeightBoard keeps the last live scale reading.
type WeightBoard struct {
	mu     sync.RWMutex
	weight *domain.Weight
}

func NewWeightBoard() *WeightBoard {
	return &WeightBoard{}
}

func (b *WeightBoard) ShowWeight(w domain.Weight) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.weight = &w
}

func (b *WeightBoard) Last() (domain.Weight, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.weight == nil {
		return domain.Weight{}, false
	}
	return *b.weight, true
}
