// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package metrics exposes the daemon's hardware snapshot as Prometheus
// gauges. Grounded on the original watt source's optional `prometheus`
// feature (src/prometheus.rs), a feature the spec distillation dropped
// and this module supplements back in, using the same
// register-gauge-vec/serve-/metrics pattern the teacher's own
// cmd/metrics/metrics_server.go uses.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NotAShelf/watt/internal/hwmodel"
)

// Metrics holds every gauge the daemon reports.
type Metrics struct {
	registry *prometheus.Registry

	cpuFrequencyMHz     *prometheus.GaugeVec
	cpuUsagePercent     *prometheus.GaugeVec
	cpuTemperatureC     *prometheus.GaugeVec
	averageTemperatureC prometheus.Gauge
	turboEnabled        prometheus.Gauge

	batteryCapacityPercent *prometheus.GaugeVec
	batteryPowerWatts      *prometheus.GaugeVec
	batteryACConnected     *prometheus.GaugeVec

	info *prometheus.GaugeVec
}

// New constructs and registers every gauge against a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.cpuFrequencyMHz = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "cpu_frequency_mhz",
		Help:      "Current scaling frequency of a CPU core, in MHz.",
	}, []string{"cpu"})

	m.cpuUsagePercent = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "cpu_usage_percent",
		Help:      "Current usage of a CPU core, 0-100.",
	}, []string{"cpu"})

	m.cpuTemperatureC = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "cpu_temperature_celsius",
		Help:      "Current temperature of a CPU core, in Celsius.",
	}, []string{"cpu"})

	m.averageTemperatureC = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "average_temperature_celsius",
		Help:      "Average temperature across all CPU cores, in Celsius.",
	})

	m.turboEnabled = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "turbo_enabled",
		Help:      "1 if turbo boost is currently enabled, 0 otherwise.",
	})

	m.batteryCapacityPercent = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "battery_capacity_percent",
		Help:      "Battery charge percentage, 0-100.",
	}, []string{"battery"})

	m.batteryPowerWatts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "battery_power_watts",
		Help:      "Battery charge or discharge rate, in watts.",
	}, []string{"battery"})

	m.batteryACConnected = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "battery_ac_connected",
		Help:      "1 if this power supply is a mains/AC supply, 0 otherwise.",
	}, []string{"supply"})

	m.info = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "watt",
		Name:      "info",
		Help:      "Always 1; labels carry descriptive system information.",
	}, []string{"cpu_model", "architecture", "governor"})

	m.registry.MustRegister(
		m.cpuFrequencyMHz,
		m.cpuUsagePercent,
		m.cpuTemperatureC,
		m.averageTemperatureC,
		m.turboEnabled,
		m.batteryCapacityPercent,
		m.batteryPowerWatts,
		m.batteryACConnected,
		m.info,
	)

	return m
}

// Update refreshes every gauge from a fresh hardware snapshot.
func (m *Metrics) Update(cpus []hwmodel.Cpu, powerSupplies []hwmodel.PowerSupply, turboEnabled bool) {
	var tempSum float64
	var tempCount int

	for _, cpu := range cpus {
		label := prometheus.Labels{"cpu": strconv.Itoa(cpu.Number)}
		if cpu.HasFrequency {
			m.cpuFrequencyMHz.With(label).Set(float64(cpu.FrequencyMHz))
		}
		m.cpuUsagePercent.With(label).Set(cpu.Stat.Usage() * 100)
		if cpu.HasTemperature {
			m.cpuTemperatureC.With(label).Set(cpu.TemperatureC)
			tempSum += cpu.TemperatureC
			tempCount++
		}
	}

	if tempCount > 0 {
		m.averageTemperatureC.Set(tempSum / float64(tempCount))
	}

	if turboEnabled {
		m.turboEnabled.Set(1)
	} else {
		m.turboEnabled.Set(0)
	}

	for _, ps := range powerSupplies {
		if ps.IsPeripheral {
			continue
		}
		label := prometheus.Labels{"battery": ps.Name}
		if ps.HasChargePercent {
			m.batteryCapacityPercent.With(label).Set(ps.ChargePercent)
		}
		if ps.HasDrainRateWatts {
			m.batteryPowerWatts.With(label).Set(ps.DrainRateWatts)
		}

		acLabel := prometheus.Labels{"supply": ps.Name}
		if ps.IsAC {
			m.batteryACConnected.With(acLabel).Set(1)
		} else {
			m.batteryACConnected.With(acLabel).Set(0)
		}
	}
}

// Serve starts an HTTP server exposing /metrics on bindAddress until ctx
// is canceled.
func Serve(ctx context.Context, bindAddress string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              bindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
