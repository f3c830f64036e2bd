// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package ruleset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAShelf/watt/internal/expr"
)

func decodeTOMLValue(t *testing.T, tomlFragment string) interface{} {
	t.Helper()
	config, err := Parse("[[rule]]\nname=\"x\"\npriority=1\nif=" + tomlFragment + "\n")
	require.NoError(t, err)
	return config.Rules[0].Condition
}

func TestDecodeSensorTerms(t *testing.T) {
	tests := []struct {
		toml string
		op   expr.OpKind
	}{
		{`"?frequency-available"`, expr.OpFrequencyAvailable},
		{`"?turbo-available"`, expr.OpTurboAvailable},
		{`"%cpu-usage"`, expr.OpCpuUsage},
		{`"$cpu-usage-volatility"`, expr.OpCpuUsageVolatility},
		{`"$cpu-temperature"`, expr.OpCpuTemperature},
		{`"$cpu-idle-seconds"`, expr.OpCpuIdleSeconds},
		{`"$cpu-frequency-minimum"`, expr.OpCpuFrequencyMinimum},
		{`"$cpu-frequency-maximum"`, expr.OpCpuFrequencyMaximum},
		{`"$cpu-scaling-maximum"`, expr.OpCpuScalingMaximum},
		{`"$cpu-core-count"`, expr.OpCpuCoreCount},
		{`"$load-average-1m"`, expr.OpLoadAverage1m},
		{`"$load-average-5m"`, expr.OpLoadAverage5m},
		{`"$load-average-15m"`, expr.OpLoadAverage15m},
		{`"$hour-of-day"`, expr.OpHourOfDay},
		{`"%power-supply-charge"`, expr.OpPowerSupplyCharge},
		{`"%power-supply-discharge-rate"`, expr.OpPowerSupplyDischargeRate},
		{`"%battery-health"`, expr.OpBatteryHealth},
		{`"$battery-cycles"`, expr.OpBatteryCycles},
		{`"?discharging"`, expr.OpDischarging},
		{`"?lid-closed"`, expr.OpLidClosed},
	}
	for _, tt := range tests {
		t.Run(tt.toml, func(t *testing.T) {
			got := decodeTOMLValue(t, tt.toml).(expr.Expression)
			assert.Equal(t, tt.op, got.Op)
		})
	}
}

func TestDecodeUnknownStringIsLiteral(t *testing.T) {
	got := decodeTOMLValue(t, `"not-a-sensor-term"`).(expr.Expression)
	assert.Equal(t, expr.OpLiteralString, got.Op)
	assert.Equal(t, "not-a-sensor-term", got.LiteralString)
}

func TestDecodeValueArgAvailabilityOperators(t *testing.T) {
	tests := []struct {
		toml string
		op   expr.OpKind
	}{
		{`{ is-governor-available = "powersave" }`, expr.OpIsGovernorAvailable},
		{`{ is-energy-performance-preference-available = "balance_power" }`, expr.OpIsEPPAvailable},
		{`{ is-energy-perf-bias-available = "6" }`, expr.OpIsEPBAvailable},
		{`{ is-platform-profile-available = "quiet" }`, expr.OpIsPlatformProfileAvailable},
		{`{ is-driver-loaded = "intel_pstate" }`, expr.OpIsDriverLoaded},
	}
	for _, tt := range tests {
		t.Run(tt.toml, func(t *testing.T) {
			got := decodeTOMLValue(t, tt.toml).(expr.Expression)
			assert.Equal(t, tt.op, got.Op)
			require.NotNil(t, got.Value)
			assert.Equal(t, expr.OpLiteralString, got.Value.Op)
		})
	}
}

func TestDecodeCpuUsageSinceParsesDurationToSeconds(t *testing.T) {
	got := decodeTOMLValue(t, `{ cpu-usage-since = "30s" }`).(expr.Expression)
	assert.Equal(t, expr.OpCpuUsageSince, got.Op)
	require.NotNil(t, got.Value)
	assert.Equal(t, expr.OpLiteralNumber, got.Value.Op)
	assert.Equal(t, float64(30), got.Value.LiteralNumber)
}

func TestDecodeCpuUsageSinceRejectsNonStringOrBadDuration(t *testing.T) {
	_, err := Parse("[[rule]]\nname=\"x\"\npriority=1\nif={ cpu-usage-since = 30 }\n")
	require.Error(t, err)

	_, err = Parse(`[[rule]]
name = "x"
priority = 1
if = { cpu-usage-since = "not-a-duration" }
`)
	require.Error(t, err)
}

func TestDecodeMinimumMaximum(t *testing.T) {
	got := decodeTOMLValue(t, `{ minimum = [1, 2, 3] }`).(expr.Expression)
	assert.Equal(t, expr.OpMinimum, got.Op)
	require.Len(t, got.List, 3)

	got = decodeTOMLValue(t, `{ maximum = [1, 2, 3] }`).(expr.Expression)
	assert.Equal(t, expr.OpMaximum, got.Op)
	require.Len(t, got.List, 3)
}

func TestDecodeArithmeticAndComparison(t *testing.T) {
	got := decodeTOMLValue(t, `{ value = 1, plus = 2 }`).(expr.Expression)
	assert.Equal(t, expr.OpPlus, got.Op)

	got = decodeTOMLValue(t, `{ value = 1, is-less-than = 2 }`).(expr.Expression)
	assert.Equal(t, expr.OpLessThan, got.Op)

	got = decodeTOMLValue(t, `{ value = 5, is-equal = 5, leeway = 0.1 }`).(expr.Expression)
	assert.Equal(t, expr.OpEqual, got.Op)
	require.NotNil(t, got.Leeway)
}

func TestDecodeLogicalOperators(t *testing.T) {
	got := decodeTOMLValue(t, `{ if = true, then = 1, else = 2 }`).(expr.Expression)
	assert.Equal(t, expr.OpIfElse, got.Op)
	require.NotNil(t, got.Condition)
	require.NotNil(t, got.Consequence)
	require.NotNil(t, got.Alternative)

	got = decodeTOMLValue(t, `{ is-unset = "$cpu-usage-volatility" }`).(expr.Expression)
	assert.Equal(t, expr.OpIsUnset, got.Op)

	got = decodeTOMLValue(t, `{ not = true }`).(expr.Expression)
	assert.Equal(t, expr.OpNot, got.Op)

	got = decodeTOMLValue(t, `{ all = [true, false] }`).(expr.Expression)
	assert.Equal(t, expr.OpAll, got.Op)
	assert.Len(t, got.All, 2)

	got = decodeTOMLValue(t, `{ any = [true, false] }`).(expr.Expression)
	assert.Equal(t, expr.OpAny, got.Op)
	assert.Len(t, got.Any, 2)
}

func TestDecodeUnknownObjectShapeErrors(t *testing.T) {
	_, err := Parse(`[[rule]]
name = "x"
priority = 1
if = { not-a-real-operator = 1 }
`)
	require.Error(t, err)
}

func TestDecodeLiteralList(t *testing.T) {
	got := decodeTOMLValue(t, `[1, 2, 3]`).(expr.Expression)
	assert.Equal(t, expr.OpLiteralList, got.Op)
	assert.Len(t, got.LiteralList, 3)
}

func TestDecodeRejectsUnknownExtraKeyInOperatorObject(t *testing.T) {
	_, err := Parse(`[[rule]]
name = "x"
priority = 1
if = { value = "%cpu-usage", is-less-than = 0.3, unexpected = true }
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected")
}
