package server

import (
	"github.com/hectorgimenez/afkbot/internal/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "afkbot"

func (s *HttpServer) registerMetrics(version string) error {
	counter := func(name, help string, value func(bot.StatsSnapshot) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(value(s.manager.Status().Stats))
		})
	}

	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		counter("popups_dismissed_total", "Popups detected and clicked away.", func(st bot.StatsSnapshot) uint64 { return st.PopupsDismissed }),
		counter("patterns_total", "Movement patterns executed.", func(st bot.StatsSnapshot) uint64 { return st.Patterns }),
		counter("pattern_failures_total", "Movement patterns with at least one failed step.", func(st bot.StatsSnapshot) uint64 { return st.StepFailures }),
		counter("recoveries_total", "Recovery procedures run.", func(st bot.StatsSnapshot) uint64 { return st.Recoveries }),
		counter("loop_failures_total", "Main loop failures.", func(st bot.StatsSnapshot) uint64 { return st.LoopFailures }),
		counter("capture_failures_total", "Screen captures that failed.", func(st bot.StatsSnapshot) uint64 { return st.CaptureFailures }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "running",
			Help:      "1 while the bot is running.",
		}, func() float64 {
			if s.manager.Status().Running {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "uptime_seconds",
			Help:      "Duration of the current run.",
		}, func() float64 {
			return s.manager.Status().Uptime.Seconds()
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "build_info",
			Help:        "Build version.",
			ConstLabels: prometheus.Labels{"version": version},
		}, func() float64 { return 1 }),
	}

	for _, c := range cs {
		if err := s.registry.Register(c); err != nil {
			return err
		}
	}
	s.buildVersion = version

	return nil
}

func (s *HttpServer) version() string {
	return s.buildVersion
}
