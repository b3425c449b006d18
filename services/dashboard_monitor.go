package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/qr-restaurant/utils"
)

// StatsSink receives dashboard counters.
type StatsSink interface {
	StatsUpdated(Stats)
}

// DashboardMonitor recomputes the admin counters on a ticker and publishes
// them when they differ from the last published value. Orders-today rolls
// over at midnight without any write, so the counters cannot be pushed from
// the write path alone.
type DashboardMonitor struct {
	Admin    *AdminService
	Sink     StatsSink
	Interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	last *Stats
}

func NewDashboardMonitor(admin *AdminService, sink StatsSink) *DashboardMonitor {
	return &DashboardMonitor{
		Admin:    admin,
		Sink:     sink,
		Interval: 5 * time.Second,
		stopChan: make(chan struct{}),
	}
}

func (m *DashboardMonitor) Start() {
	go func() {
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Tick(context.Background())
			case <-m.stopChan:
				return
			}
		}
	}()
}

func (m *DashboardMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Tick runs one refresh and reports whether anything was published.
func (m *DashboardMonitor) Tick(ctx context.Context) bool {
	stats, err := m.Admin.Stats(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Error computing dashboard stats: %v", err)
		return false
	}

	m.mu.Lock()
	changed := m.last == nil || *m.last != stats
	if changed {
		m.last = &stats
	}
	m.mu.Unlock()

	if changed {
		m.Sink.StatsUpdated(stats)
	}
	return changed
}
