package jobs_test

import (
	"testing"
	"time"

	"krishak/internal/jobs"
	"krishak/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	idle    time.Duration
	removed int
	calls   int
}

func (f *fakeCleaner) Cleanup(idle time.Duration) int {
	f.calls++
	f.idle = idle
	return f.removed
}

type fakeSweeper struct {
	idle  time.Duration
	swept int
}

func (f *fakeSweeper) SweepIdle(idle time.Duration) int {
	f.idle = idle
	return f.swept
}

func TestHousekeepingRun(t *testing.T) {
	limiter := &fakeCleaner{removed: 2}
	carts := &fakeSweeper{swept: 3}
	before := testutil.ToFloat64(metrics.CartsSwept)

	jobs.Housekeeping{
		Limiter:     limiter,
		LimiterIdle: 3 * time.Minute,
		Carts:       carts,
		CartIdle:    24 * time.Hour,
	}.Run()

	assert.Equal(t, 3*time.Minute, limiter.idle)
	assert.Equal(t, 24*time.Hour, carts.idle)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.CartsSwept))
}

func TestHousekeepingSkipsNilTargets(t *testing.T) {
	assert.NotPanics(t, func() { jobs.Housekeeping{}.Run() })
}

func TestStartRejectsBadSchedule(t *testing.T) {
	_, err := jobs.Start("every now and then", jobs.Housekeeping{})
	assert.Error(t, err)

	c, err := jobs.Start(jobs.DefaultSchedule, jobs.Housekeeping{Limiter: &fakeCleaner{}})
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
