package monitor

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// WeightInterval is how often the live scale reading is refreshed.
const WeightInterval = 1000 * time.Millisecond

type WeightSource interface {
	Weight(ctx context.Context) (float64, error)
}

type WeightDisplay interface {
	ShowWeight(w domain.Weight)
}

// WeightLoop keeps the on-screen weight current. The endpoint is optional on
// some backends, so repeated failures open a breaker and the loop stops
// calling it for a while instead of logging every second.
type WeightLoop struct {
	source   WeightSource
	display  WeightDisplay
	health   HealthReporter
	breaker  *gobreaker.CircuitBreaker[float64]
	interval time.Duration
}

type WeightOption func(*WeightLoop)

func WithWeightHealth(h HealthReporter) WeightOption {
	return func(l *WeightLoop) {
		l.health = h
	}
}

func NewWeightLoop(source WeightSource, display WeightDisplay, opts ...WeightOption) *WeightLoop {
	l := &WeightLoop{
		source:   source,
		display:  display,
		interval: WeightInterval,
	}
	l.breaker = gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "weight-poll",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("breaker %s: %s -> %s", name, from, to)
		},
	})
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *WeightLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (l *WeightLoop) tick(ctx context.Context) {
	grams, err := l.breaker.Execute(func() (float64, error) {
		return l.source.Weight(ctx)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Printf("weight poll failed: %v", err)
		}
		if l.health != nil {
			l.health.TickFailed(LoopWeight, err)
		}
		return
	}
	if l.health != nil {
		l.health.TickSucceeded(LoopWeight)
	}
	l.display.ShowWeight(domain.Weight{
		Grams:   grams,
		Display: domain.FormatWeight(grams),
		ReadAt:  time.Now(),
	})
}

// State reports the breaker state, for the status endpoint.
func (l *WeightLoop) State() gobreaker.State {
	return l.breaker.State()
}
