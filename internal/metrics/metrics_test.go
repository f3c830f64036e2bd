// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package metrics

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAShelf/watt/internal/hwmodel"
)

func TestUpdateSetsCpuGauges(t *testing.T) {
	m := New()
	cpus := []hwmodel.Cpu{
		{Number: 0, FrequencyMHz: 3200, HasFrequency: true, TemperatureC: 55, HasTemperature: true, Stat: hwmodel.Stat{User: 50, Idle: 50}},
	}

	m.Update(cpus, nil, true)

	assert.InDelta(t, 3200, testutil.ToFloat64(m.cpuFrequencyMHz.With(prometheus.Labels{"cpu": "0"})), 0.0001)
	assert.InDelta(t, 50, testutil.ToFloat64(m.cpuUsagePercent.With(prometheus.Labels{"cpu": "0"})), 0.0001)
	assert.InDelta(t, 55, testutil.ToFloat64(m.cpuTemperatureC.With(prometheus.Labels{"cpu": "0"})), 0.0001)
	assert.InDelta(t, 55, testutil.ToFloat64(m.averageTemperatureC), 0.0001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.turboEnabled), 0.0001)
}

func TestUpdateSkipsFrequencyAndTemperatureWhenUnavailable(t *testing.T) {
	m := New()
	cpus := []hwmodel.Cpu{{Number: 1}}

	m.Update(cpus, nil, false)

	assert.InDelta(t, 0, testutil.ToFloat64(m.turboEnabled), 0.0001)
}

func TestUpdateSkipsPeripheralPowerSupplies(t *testing.T) {
	m := New()
	supplies := []hwmodel.PowerSupply{
		{Name: "mouse-battery", IsPeripheral: true, HasChargePercent: true, ChargePercent: 10},
		{Name: "BAT0", HasChargePercent: true, ChargePercent: 77, HasDrainRateWatts: true, DrainRateWatts: 8.5},
	}

	m.Update(nil, supplies, false)

	assert.InDelta(t, 77, testutil.ToFloat64(m.batteryCapacityPercent.With(prometheus.Labels{"battery": "BAT0"})), 0.0001)
	assert.InDelta(t, 8.5, testutil.ToFloat64(m.batteryPowerWatts.With(prometheus.Labels{"battery": "BAT0"})), 0.0001)
}

func TestUpdateSetsACConnectedGauge(t *testing.T) {
	m := New()
	supplies := []hwmodel.PowerSupply{
		{Name: "AC0", IsAC: true},
		{Name: "BAT0", IsAC: false},
	}

	m.Update(nil, supplies, false)

	assert.InDelta(t, 1, testutil.ToFloat64(m.batteryACConnected.With(prometheus.Labels{"supply": "AC0"})), 0.0001)
	assert.InDelta(t, 0, testutil.ToFloat64(m.batteryACConnected.With(prometheus.Labels{"supply": "BAT0"})), 0.0001)
}

func TestServeShutsDownCleanlyOnContextCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	m := New()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, addr, m)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}
