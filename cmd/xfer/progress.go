package main

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// progressInterval is the minimum gap between two progress records.
const progressInterval = 500 * time.Millisecond

// progressLogger logs transfer progress at most once per interval.
// The final update is always logged.
type progressLogger struct {
	logger   *slog.Logger
	op       string
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

func newProgressLogger(logger *slog.Logger, op string) *progressLogger {
	return &progressLogger{
		logger:   logger,
		op:       op,
		interval: progressInterval,
		now:      time.Now,
	}
}

func (p *progressLogger) Update(transferred, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if transferred < total && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now

	percent := 100.0
	if total > 0 {
		percent = float64(transferred) * 100 / float64(total)
	}
	p.logger.Info(p.op+" progress",
		"transferred", humanize.IBytes(uint64(transferred)),
		"total", humanize.IBytes(uint64(total)),
		"percent", humanize.FtoaWithDigits(percent, 1))
}

func (p *progressLogger) Complete() {
	p.logger.Debug(p.op + " complete")
}

func (p *progressLogger) Error(err error) {
	p.logger.Debug(p.op+" failed", "error", err)
}
