package monitor

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/backend"
	"github.com/fjod/go_cart/smart-trolley/internal/domain"
)

// AlertInterval is how often the backend weight monitor is polled.
const AlertInterval = 2000 * time.Millisecond

const (
	LoopAlerts = "alerts"
	LoopWeight = "weight"
)

type AlertSource interface {
	Monitor(ctx context.Context) (*backend.MonitorResult, error)
}

// AlertPresenter shows an alert to the shopper. Present must not block on
// the shopper acknowledging it.
type AlertPresenter interface {
	Present(alert domain.Alert)
}

// AlertSink receives every alert after it was presented.
type AlertSink interface {
	Publish(ctx context.Context, alert domain.Alert) error
}

// HealthReporter is told the result of every tick.
type HealthReporter interface {
	TickSucceeded(loop string)
	TickFailed(loop string, err error)
}

type Loop struct {
	source      AlertSource
	presenter   AlertPresenter
	sinks       []AlertSink
	health      HealthReporter
	trolleyID   string
	interval    time.Duration
	sinkTimeout time.Duration
}

type Option func(*Loop)

func WithSinks(sinks ...AlertSink) Option {
	return func(l *Loop) {
		l.sinks = append(l.sinks, sinks...)
	}
}

func WithHealth(h HealthReporter) Option {
	return func(l *Loop) {
		l.health = h
	}
}

func WithTrolleyID(id string) Option {
	return func(l *Loop) {
		l.trolleyID = id
	}
}

func NewLoop(source AlertSource, presenter AlertPresenter, opts ...Option) *Loop {
	l := &Loop{
		source:      source,
		presenter:   presenter,
		interval:    AlertInterval,
		sinkTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run polls until ctx is cancelled. A failed tick is logged and the next
// one runs on schedule.
func (l *Loop) Run(ctx context.Context) {
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

func (l *Loop) tick(ctx context.Context) {
	result, err := l.source.Monitor(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("monitor poll failed: %v", err)
		if l.health != nil {
			l.health.TickFailed(LoopAlerts, err)
		}
		return
	}
	if l.health != nil {
		l.health.TickSucceeded(LoopAlerts)
	}

	msg := strings.TrimSpace(result.Alert)
	if msg == "" {
		return
	}

	alert := domain.Alert{Message: msg, TrolleyID: l.trolleyID, RaisedAt: time.Now()}
	log.Printf("security alert for trolley %s: %s", l.trolleyID, msg)
	l.presenter.Present(alert)
	l.fanOut(ctx, alert)
}

func (l *Loop) fanOut(ctx context.Context, alert domain.Alert) {
	for _, sink := range l.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, l.sinkTimeout)
		if err := sink.Publish(sinkCtx, alert); err != nil {
			log.Printf("failed to forward alert: %v", err)
		}
		cancel()
	}
}
