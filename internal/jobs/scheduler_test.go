package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"cvcraft/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calls []time.Time
	n     int
	err   error
}

func (f *fakeExpirer) ExpireLapsed(ctx context.Context, now time.Time) (int, error) {
	f.calls = append(f.calls, now)
	return f.n, f.err
}

type fakeQueue struct{ length int64 }

func (f fakeQueue) QueueLength(ctx context.Context) int64 { return f.length }

func TestScheduler_StartRegistersJobs(t *testing.T) {
	s := NewScheduler(Config{ExpireSchedule: "@every 1h", GaugeSchedule: "@every 1m"}, &fakeExpirer{}, fakeQueue{})

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.True(t, s.IsRunning())
	jobs := s.Jobs()
	assert.Len(t, jobs, 2)
	assert.Contains(t, jobs, ExpireSubscriptions)
	assert.Contains(t, jobs, EmailQueueGauge)
	assert.Error(t, s.Start())
}

func TestScheduler_SkipsUnscheduledJobs(t *testing.T) {
	s := NewScheduler(Config{ExpireSchedule: "@every 1h"}, &fakeExpirer{}, fakeQueue{})

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Len(t, s.Jobs(), 1)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(Config{ExpireSchedule: "not a schedule"}, &fakeExpirer{}, nil)

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ExpireSubscriptions)
	assert.False(t, s.IsRunning())
}

func TestScheduler_Stop(t *testing.T) {
	s := NewScheduler(Config{GaugeSchedule: "@every 1m"}, nil, fakeQueue{})
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.False(t, s.IsRunning())
	assert.Empty(t, s.Jobs())
	s.Stop(ctx)
}

func TestScheduler_ExpireSubscriptions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := &fakeExpirer{n: 2}
	s := NewScheduler(Config{}, exp, nil)
	s.now = func() time.Time { return now }

	require.NoError(t, s.ExpireSubscriptions(context.Background()))
	require.Len(t, exp.calls, 1)
	assert.Equal(t, now, exp.calls[0])

	exp.err = errors.New("db down")
	assert.EqualError(t, s.ExpireSubscriptions(context.Background()), "db down")
}

func TestScheduler_RecordQueueLength(t *testing.T) {
	s := NewScheduler(Config{}, nil, fakeQueue{length: 4})

	require.NoError(t, s.RecordQueueLength(context.Background()))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.EmailQueueLength))
}
