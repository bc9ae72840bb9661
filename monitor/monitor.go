// Package monitor samples a temperature sensor periodically and exports the
// readings as Prometheus metrics.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mklimuk/tempsensor"
	"github.com/mklimuk/tempsensor/environment"
	"github.com/mklimuk/tempsensor/snsctx"
)

const DefaultInterval = time.Second

// how many samples between summary log lines
const summaryEvery = 60

// Sensor is the part of the MAX31875 driver the monitor needs.
type Sensor interface {
	Address() byte
	Refresh(ctx context.Context) error
	OverTemperature() bool
	GetTemperature(ctx context.Context) (float64, error)
}

var _ Sensor = &environment.MAX31875{}

type Monitor struct {
	sensor   Sensor
	interval time.Duration

	temperature prometheus.Gauge
	overTemp    prometheus.Gauge
	samples     prometheus.Counter
	readErrors  *prometheus.CounterVec

	mx      sync.Mutex
	started time.Time
	count   uint64
	last    float64
}

type Option func(*Monitor)

func WithInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// New creates a monitor and registers its metrics with reg.
func New(sensor Sensor, reg prometheus.Registerer, opts ...Option) (*Monitor, error) {
	labels := prometheus.Labels{"address": fmt.Sprintf("%#02x", sensor.Address())}
	m := &Monitor{
		sensor:   sensor,
		interval: DefaultInterval,
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "tsense_temperature_celsius",
			Help:        "Last temperature read from the sensor.",
			ConstLabels: labels,
		}),
		overTemp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "tsense_over_temperature",
			Help:        "Over-temperature status bit, 1 when set.",
			ConstLabels: labels,
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "tsense_samples_total",
			Help:        "Successful temperature samples.",
			ConstLabels: labels,
		}),
		readErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tsense_read_errors_total",
			Help:        "Failed samples by cause.",
			ConstLabels: labels,
		}, []string{"cause"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, c := range []prometheus.Collector{m.temperature, m.overTemp, m.samples, m.readErrors} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("could not register metric: %w", err)
		}
	}
	return m, nil
}

// Sample refreshes the configuration, so the status bit and data format are
// current, then reads the temperature.
func (m *Monitor) Sample(ctx context.Context) error {
	err := m.sensor.Refresh(ctx)
	if err != nil {
		m.readErrors.WithLabelValues(cause(err)).Inc()
		return err
	}
	temp, err := m.sensor.GetTemperature(ctx)
	if err != nil {
		m.readErrors.WithLabelValues(cause(err)).Inc()
		return err
	}
	m.temperature.Set(temp)
	if m.sensor.OverTemperature() {
		m.overTemp.Set(1)
	} else {
		m.overTemp.Set(0)
	}
	m.samples.Inc()
	m.mx.Lock()
	m.count++
	m.last = temp
	m.mx.Unlock()
	return nil
}

// Run samples every interval until ctx is done. Sample errors are logged and
// counted, they do not stop the loop.
func (m *Monitor) Run(ctx context.Context) error {
	logger := snsctx.Logger(ctx)
	m.mx.Lock()
	m.started = time.Now()
	m.mx.Unlock()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		if err := m.Sample(ctx); err != nil && ctx.Err() == nil {
			logger.WarnContext(ctx, "sample failed", "error", err)
		}
		m.logSummary(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) logSummary(ctx context.Context) {
	m.mx.Lock()
	count, last, started := m.count, m.last, m.started
	m.mx.Unlock()
	if count == 0 || count%summaryEvery != 0 {
		return
	}
	snsctx.Logger(ctx).InfoContext(ctx, "monitor summary",
		"samples", humanize.Comma(int64(count)),
		"since", humanize.Time(started),
		"last", fmt.Sprintf("%.4f", last))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func cause(err error) string {
	switch {
	case errors.Is(err, environment.ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, tempsensor.ErrBusBusy):
		return "busy"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "bus"
	}
}
