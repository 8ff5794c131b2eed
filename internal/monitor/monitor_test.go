package monitor

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boat-safety-go/pkg/models"
)

type fakeDetector struct {
	calls atomic.Int64
}

func (f *fakeDetector) DetectCollisions() []models.CollisionAlert {
	n := int(f.calls.Add(1))
	return []models.CollisionAlert{{CurrentBoatID: n, Level: models.LevelWarning}}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestMonitor_EmitsBatches(t *testing.T) {
	det := &fakeDetector{}
	m := New(det, quietLogger(), Options{Period: 5 * time.Millisecond, Buffer: 16})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	assert.True(t, m.Running())

	select {
	case batch := <-m.Alerts():
		assert.NotEmpty(t, batch.ScanID)
		require.Len(t, batch.Alerts, 1)
		assert.False(t, batch.GeneratedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no batch received")
	}

	assert.Eventually(t, func() bool { return m.Stats().Ticks >= 3 }, time.Second, time.Millisecond)

	latest, ok := m.Latest()
	require.True(t, ok)
	assert.NotEmpty(t, latest.ScanID)

	m.Stop()
	require.NoError(t, m.Wait(context.Background()))
	assert.False(t, m.Running())
}

func TestMonitor_StartTwice(t *testing.T) {
	m := New(&fakeDetector{}, quietLogger(), Options{Period: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Start(ctx))
	assert.ErrorIs(t, m.Start(ctx), ErrAlreadyRunning)

	m.Stop()
	<-m.Done()
	assert.ErrorIs(t, m.Start(ctx), ErrStopped)
}

func TestMonitor_ConcurrentStart(t *testing.T) {
	m := New(&fakeDetector{}, quietLogger(), Options{Period: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const callers = 8
	errs := make([]error, callers)
	ready := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ready
			errs[i] = m.Start(ctx)
		}()
	}
	close(ready)
	wg.Wait()

	started := 0
	for _, err := range errs {
		if err == nil {
			started++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyRunning)
	}
	assert.Equal(t, 1, started)

	m.Stop()
	<-m.Done()
}

func TestMonitor_StopIsPrompt(t *testing.T) {
	m := New(&fakeDetector{}, quietLogger(), Options{Period: time.Hour})
	require.NoError(t, m.Start(context.Background()))

	assert.Eventually(t, func() bool { return m.Stats().Ticks == 1 }, time.Second, time.Millisecond)
	m.Stop()
	m.Stop()

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitor_ContextCancel(t *testing.T) {
	m := New(&fakeDetector{}, quietLogger(), Options{Period: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, m.Wait(waitCtx))

	// channel is closed after exit
	for range m.Alerts() {
	}
}

func TestMonitor_DropsOldestWhenConsumerIsSlow(t *testing.T) {
	det := &fakeDetector{}
	m := New(det, quietLogger(), Options{Period: time.Millisecond, Buffer: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	assert.Eventually(t, func() bool { return m.Stats().BatchesDropped >= 3 }, 2*time.Second, time.Millisecond)
	m.Stop()
	<-m.Done()

	var got []models.AlertBatch
	for b := range m.Alerts() {
		got = append(got, b)
	}
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 2)

	// the survivors are the newest batches, in order
	last := got[len(got)-1].Alerts[0].CurrentBoatID
	assert.Equal(t, int(det.calls.Load()), last)
	stats := m.Stats()
	assert.Equal(t, stats.Ticks, stats.BatchesDropped+uint64(len(got)))
}

func TestMonitor_Defaults(t *testing.T) {
	m := New(&fakeDetector{}, quietLogger(), Options{})
	assert.Equal(t, DefaultPeriod, m.Period())
	assert.Equal(t, 1, cap(m.out))
	_, ok := m.Latest()
	assert.False(t, ok)
}
