// Package engine - ticker.go
// Real-time driver for the fixed simulation step.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// Ticker manages the game loop heartbeat.
// It does NOT know about sanity or lights - only time progression.
type Ticker struct {
	engine   *Engine
	rate     time.Duration
	logger   *logger.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	onTick   func(latency time.Duration)
}

// NewTicker creates a ticker advancing engine by rate every rate of wall time.
func NewTicker(engine *Engine, rate time.Duration, log *logger.Logger) *Ticker {
	return &Ticker{
		engine:   engine,
		rate:     rate,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Start begins the game loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Engine Ticker started. The ward is listening...")

	ticker := time.NewTicker(t.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Engine Ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Engine Ticker stopped manually.")
			return
		case <-ticker.C:
			start := time.Now()
			t.engine.Tick(t.rate)
			if t.onTick != nil {
				t.onTick(time.Since(start))
			}
		}
	}
}

// Stop gracefully stops the ticker. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}
