package monitor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/sim"
)

func newSimMonitor(t *testing.T, dev *sim.MAX31875, opts ...Option) (*Monitor, *prometheus.Registry) {
	t.Helper()
	s, err := environment.NewMAX31875(dev)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m, err := New(s, reg, opts...)
	require.NoError(t, err)
	return m, reg
}

func TestMonitor_Sample(t *testing.T) {
	dev := sim.NewMAX31875(0, sim.WithTemperature(sim.Sequence(21.5, 82)))
	m, _ := newSimMonitor(t, dev)
	ctx := context.Background()

	require.NoError(t, m.Sample(ctx))
	assert.Equal(t, 21.5, testutil.ToFloat64(m.temperature))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.overTemp))

	dev.SetOverTemperature(true)
	require.NoError(t, m.Sample(ctx))
	assert.Equal(t, 82.0, testutil.ToFloat64(m.temperature))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.overTemp))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.samples))
}

func TestMonitor_SampleErrors(t *testing.T) {
	dev := sim.NewMAX31875(0, sim.WithTemperature(sim.Sequence(30)))
	m, _ := newSimMonitor(t, dev)
	ctx := context.Background()

	require.NoError(t, m.Sample(ctx))
	// sequence exhausted
	assert.Error(t, m.Sample(ctx))
	dev.FailNext(errors.New("nack"))
	assert.Error(t, m.Sample(ctx))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.readErrors.WithLabelValues("bus")))
	// the failed samples leave the last good reading in place
	assert.Equal(t, 30.0, testutil.ToFloat64(m.temperature))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.samples))
}

func TestMonitor_ChecksumCause(t *testing.T) {
	ctx := context.Background()
	dev := sim.NewMAX31875(0)
	s, err := environment.NewMAX31875(dev)
	require.NoError(t, err)
	require.NoError(t, s.SetPEC(environment.PECEnabled))
	require.NoError(t, s.Commit(ctx))
	m, err := New(s, prometheus.NewRegistry())
	require.NoError(t, err)

	dev.CorruptReads(1)
	assert.ErrorIs(t, m.Sample(ctx), environment.ErrChecksumMismatch)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.readErrors.WithLabelValues("checksum")))
}

func TestMonitor_DuplicateRegistration(t *testing.T) {
	dev := sim.NewMAX31875(0)
	s, err := environment.NewMAX31875(dev)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	_, err = New(s, reg)
	require.NoError(t, err)
	_, err = New(s, reg)
	assert.Error(t, err)
}

func TestMonitor_RunAndServe(t *testing.T) {
	dev := sim.NewMAX31875(1, sim.WithTemperature(sim.Ramp(20, 1)))
	s, err := environment.NewMAX31875(dev, environment.WithPartNumber(1))
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m, err := New(s, reg, WithInterval(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- m.Run(ctx)
	}()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.samples) >= 3
	}, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tsense_temperature_celsius{address="0x49"}`)
	assert.Contains(t, string(body), "tsense_samples_total")
}
