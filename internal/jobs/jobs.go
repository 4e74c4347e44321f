// Package jobs runs periodic housekeeping next to the HTTP server.
package jobs

import (
	"time"

	"krishak/internal/metrics"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultSchedule is how often housekeeping runs.
const DefaultSchedule = "@every 10m"

// LimiterCleaner forgets idle rate-limit visitors.
type LimiterCleaner interface {
	Cleanup(idle time.Duration) int
}

// CartSweeper drops idle carts.
type CartSweeper interface {
	SweepIdle(idle time.Duration) int
}

// Housekeeping holds the targets of the periodic jobs. A nil target is skipped.
type Housekeeping struct {
	Limiter     LimiterCleaner
	LimiterIdle time.Duration
	Carts       CartSweeper
	CartIdle    time.Duration
}

// Run performs one housekeeping pass.
func (h Housekeeping) Run() {
	if h.Limiter != nil {
		if n := h.Limiter.Cleanup(h.LimiterIdle); n > 0 {
			log.WithField("removed", n).Debug("Cleaned up idle rate limiter entries")
		}
	}
	if h.Carts != nil {
		n := h.Carts.SweepIdle(h.CartIdle)
		if n > 0 {
			metrics.CartsSwept.Add(float64(n))
			log.WithField("swept", n).Info("Swept idle carts")
		}
	}
}

// Start schedules h on schedule and starts the scheduler. Stop the returned cron
// on shutdown.
func Start(schedule string, h Housekeeping) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, h.Run); err != nil {
		return nil, err
	}
	c.Start()
	log.WithField("schedule", schedule).Info("Housekeeping scheduler started")
	return c, nil
}
