package metrics

import (
	"strconv"
	"strings"
	"sync"

	"github.com/DataDog/datadog-go/statsd"
	"go.uber.org/zap"

	"github.com/muurk/raincloud/internal/logging"
	"github.com/muurk/raincloud/raincloud"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "raincloud."

var (
	mu        sync.Mutex
	dogstatsd *statsd.Client
)

// Init creates the global DogStatsD client. Gauges are dropped until Init
// succeeds, so a missing agent never stops the monitor loop.
func Init(addr, namespace string, tags []string) error {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	client, err := statsd.New(addr,
		statsd.WithNamespace(namespace),
		statsd.WithTags(tags),
		statsd.WithoutTelemetry(),
	)
	if err != nil {
		logging.Warn("Failed to create DogStatsD client", zap.String("addr", addr), zap.Error(err))
		return err
	}

	mu.Lock()
	old := dogstatsd
	dogstatsd = client
	mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	logging.Info("StatsD metrics initialized",
		zap.String("addr", addr),
		zap.String("namespace", namespace),
		zap.Strings("tags", tags),
	)
	return nil
}

// Enabled reports whether Init has succeeded.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return dogstatsd != nil
}

// Gauge emits one gauge. Failures are logged, never returned.
func Gauge(name string, value float64, tags ...string) {
	mu.Lock()
	client := dogstatsd
	mu.Unlock()
	if client == nil {
		return
	}
	if err := client.Gauge(name, value, tags, 1); err != nil {
		logging.Warn("Failed to emit gauge metric", zap.String("metric", name), zap.Error(err))
	}
}

// Close flushes buffered metrics and drops the client.
func Close() error {
	mu.Lock()
	client := dogstatsd
	dogstatsd = nil
	mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

// ReportControllers emits the gauges for a snapshot of the whole tree.
func ReportControllers(reports []raincloud.ControllerReport) {
	for _, c := range reports {
		ctrlTag := "controller:" + c.Serial
		Gauge("controller.online", boolGauge(strings.EqualFold(c.Status, "online")), ctrlTag)

		for _, f := range c.Faucets {
			faucetTags := []string{ctrlTag, "faucet:" + f.Serial}
			Gauge("faucet.online", boolGauge(strings.EqualFold(f.Status, "online")), faucetTags...)
			if level, err := strconv.ParseFloat(f.Battery, 64); err == nil {
				Gauge("faucet.battery", level, faucetTags...)
			}

			for _, z := range f.Zones {
				zoneTags := append(append([]string(nil), faucetTags...), "zone:"+strconv.Itoa(z.ID))
				Gauge("zone.watering_time", float64(z.WateringTime), zoneTags...)
				Gauge("zone.is_watering", boolGauge(z.IsWatering), zoneTags...)
				Gauge("zone.rain_delay", float64(z.RainDelay), zoneTags...)
				Gauge("zone.auto_watering", boolGauge(z.AutoWatering), zoneTags...)
				Gauge("zone.manual_watering", boolGauge(z.ManualWatering), zoneTags...)
			}
		}
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
