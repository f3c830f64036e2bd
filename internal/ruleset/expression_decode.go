// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package ruleset decodes the TOML rule file into expr.Expression trees
// and ruleset.Rule values, and validates the cross-rule invariants the
// original source checks at load time (unique priorities). Grounded on
// config.rs's Expression #[serde(untagged)] enum and DaemonConfig::
// load_from.
package ruleset

import (
	"fmt"
	"time"

	"github.com/NotAShelf/watt/internal/expr"
)

// sensorTerms maps the exact literal TOML string a rule author writes to
// the sensor-term expression it denotes, mirroring config.rs's
// expression::<name> named!() visitors. A bare string that is not one of
// these keys decodes as a generic String literal instead.
var sensorTerms = map[string]expr.OpKind{
	"?frequency-available": expr.OpFrequencyAvailable,
	"?turbo-available":     expr.OpTurboAvailable,

	"%cpu-usage":                  expr.OpCpuUsage,
	"$cpu-usage-volatility":       expr.OpCpuUsageVolatility,
	"$cpu-temperature":            expr.OpCpuTemperature,
	"$cpu-temperature-volatility": expr.OpCpuTemperatureVolatility,
	"$cpu-idle-seconds":           expr.OpCpuIdleSeconds,
	"$cpu-frequency-minimum":      expr.OpCpuFrequencyMinimum,
	"$cpu-frequency-maximum":      expr.OpCpuFrequencyMaximum,
	"$cpu-scaling-maximum":        expr.OpCpuScalingMaximum,
	"$cpu-core-count":             expr.OpCpuCoreCount,

	"$load-average-1m":  expr.OpLoadAverage1m,
	"$load-average-5m":  expr.OpLoadAverage5m,
	"$load-average-15m": expr.OpLoadAverage15m,
	"$hour-of-day":      expr.OpHourOfDay,

	"%power-supply-charge":         expr.OpPowerSupplyCharge,
	"%power-supply-discharge-rate": expr.OpPowerSupplyDischargeRate,
	"%battery-health":              expr.OpBatteryHealth,
	"$battery-cycles":              expr.OpBatteryCycles,

	"?discharging": expr.OpDischarging,
	"?lid-closed":  expr.OpLidClosed,
}

// valueArgOperators maps the TOML key an author writes for a single-
// argument operator (the argument is the object value itself, e.g.
// {"is-governor-available" = "powersave"}) to the OpKind it denotes.
var valueArgOperators = map[string]expr.OpKind{
	"is-governor-available":                     expr.OpIsGovernorAvailable,
	"is-energy-performance-preference-available": expr.OpIsEPPAvailable,
	"is-energy-perf-bias-available":              expr.OpIsEPBAvailable,
	"is-platform-profile-available":              expr.OpIsPlatformProfileAvailable,
	"is-driver-loaded":                           expr.OpIsDriverLoaded,
}

// decodeExpression turns a raw TOML value (as produced by BurntSushi/toml
// for an untyped interface{} target: bool, int64, float64, string,
// []interface{}, or map[string]interface{}) into an expr.Expression.
func decodeExpression(raw interface{}) (expr.Expression, error) {
	switch v := raw.(type) {
	case nil:
		return expr.Expression{}, fmt.Errorf("expression cannot be null")

	case bool:
		return expr.Expression{Op: expr.OpLiteralBoolean, LiteralBoolean: v}, nil

	case int64:
		return expr.Expression{Op: expr.OpLiteralNumber, LiteralNumber: float64(v)}, nil

	case float64:
		return expr.Expression{Op: expr.OpLiteralNumber, LiteralNumber: v}, nil

	case string:
		if op, ok := sensorTerms[v]; ok {
			return expr.Expression{Op: op}, nil
		}
		return expr.Expression{Op: expr.OpLiteralString, LiteralString: v}, nil

	case []interface{}:
		items := make([]expr.Expression, len(v))
		for i, item := range v {
			child, err := decodeExpression(item)
			if err != nil {
				return expr.Expression{}, err
			}
			items[i] = child
		}
		return expr.Expression{Op: expr.OpLiteralList, LiteralList: items}, nil

	case map[string]interface{}:
		return decodeExpressionObject(v)

	default:
		return expr.Expression{}, fmt.Errorf("unsupported expression value of type %T", raw)
	}
}

func decodeExpressionObject(obj map[string]interface{}) (expr.Expression, error) {
	has := func(key string) bool { _, ok := obj[key]; return ok }
	child := func(key string) (expr.Expression, error) {
		return decodeExpression(obj[key])
	}

	switch {
	case has("value") && has("plus"):
		if err := rejectObjectKeys(obj, "value", "plus"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "plus", expr.OpPlus)
	case has("value") && has("minus"):
		if err := rejectObjectKeys(obj, "value", "minus"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "minus", expr.OpMinus)
	case has("value") && has("multiply"):
		if err := rejectObjectKeys(obj, "value", "multiply"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "multiply", expr.OpMultiply)
	case has("value") && has("power"):
		if err := rejectObjectKeys(obj, "value", "power"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "power", expr.OpPower)
	case has("value") && has("divide"):
		if err := rejectObjectKeys(obj, "value", "divide"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "divide", expr.OpDivide)

	case has("value") && has("is-less-than"):
		if err := rejectObjectKeys(obj, "value", "is-less-than"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "is-less-than", expr.OpLessThan)
	case has("value") && has("is-more-than"):
		if err := rejectObjectKeys(obj, "value", "is-more-than"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "is-more-than", expr.OpMoreThan)

	case has("if"):
		if err := rejectObjectKeys(obj, "if", "then", "else"); err != nil {
			return expr.Expression{}, err
		}
		condition, err := child("if")
		if err != nil {
			return expr.Expression{}, err
		}
		consequence, err := child("then")
		if err != nil {
			return expr.Expression{}, err
		}
		e := expr.Expression{Op: expr.OpIfElse, Condition: &condition, Consequence: &consequence}
		if has("else") {
			alt, err := child("else")
			if err != nil {
				return expr.Expression{}, err
			}
			e.Alternative = &alt
		}
		return e, nil

	case has("is-unset"):
		if err := rejectObjectKeys(obj, "is-unset"); err != nil {
			return expr.Expression{}, err
		}
		a, err := child("is-unset")
		if err != nil {
			return expr.Expression{}, err
		}
		return expr.Expression{Op: expr.OpIsUnset, A: a}, nil

	case has("value") && has("and"):
		if err := rejectObjectKeys(obj, "value", "and"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "and", expr.OpAnd)

	case has("all"):
		if err := rejectObjectKeys(obj, "all"); err != nil {
			return expr.Expression{}, err
		}
		list, ok := obj["all"].([]interface{})
		if !ok {
			return expr.Expression{}, fmt.Errorf("\"all\" must be a list")
		}
		members := make([]expr.Expression, len(list))
		for i, item := range list {
			m, err := decodeExpression(item)
			if err != nil {
				return expr.Expression{}, err
			}
			members[i] = m
		}
		return expr.Expression{Op: expr.OpAll, All: members}, nil

	case has("value") && has("or"):
		if err := rejectObjectKeys(obj, "value", "or"); err != nil {
			return expr.Expression{}, err
		}
		return decodeBinary(obj, "value", "or", expr.OpOr)

	case has("any"):
		if err := rejectObjectKeys(obj, "any"); err != nil {
			return expr.Expression{}, err
		}
		list, ok := obj["any"].([]interface{})
		if !ok {
			return expr.Expression{}, fmt.Errorf("\"any\" must be a list")
		}
		members := make([]expr.Expression, len(list))
		for i, item := range list {
			m, err := decodeExpression(item)
			if err != nil {
				return expr.Expression{}, err
			}
			members[i] = m
		}
		return expr.Expression{Op: expr.OpAny, Any: members}, nil

	case has("not"):
		if err := rejectObjectKeys(obj, "not"); err != nil {
			return expr.Expression{}, err
		}
		a, err := child("not")
		if err != nil {
			return expr.Expression{}, err
		}
		return expr.Expression{Op: expr.OpNot, Not: &a}, nil

	case has("cpu-usage-since"):
		if err := rejectObjectKeys(obj, "cpu-usage-since"); err != nil {
			return expr.Expression{}, err
		}
		raw, ok := obj["cpu-usage-since"].(string)
		if !ok {
			return expr.Expression{}, fmt.Errorf("\"cpu-usage-since\" must be a duration string")
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return expr.Expression{}, fmt.Errorf("\"cpu-usage-since\" is not a valid duration: %w", err)
		}
		window := expr.Expression{Op: expr.OpLiteralNumber, LiteralNumber: d.Seconds()}
		return expr.Expression{Op: expr.OpCpuUsageSince, Value: &window}, nil

	case has("minimum"):
		if err := rejectObjectKeys(obj, "minimum"); err != nil {
			return expr.Expression{}, err
		}
		list, ok := obj["minimum"].([]interface{})
		if !ok {
			return expr.Expression{}, fmt.Errorf("\"minimum\" must be a list")
		}
		items, err := decodeExpressionList(list)
		if err != nil {
			return expr.Expression{}, err
		}
		return expr.Expression{Op: expr.OpMinimum, List: items}, nil

	case has("maximum"):
		if err := rejectObjectKeys(obj, "maximum"); err != nil {
			return expr.Expression{}, err
		}
		list, ok := obj["maximum"].([]interface{})
		if !ok {
			return expr.Expression{}, fmt.Errorf("\"maximum\" must be a list")
		}
		items, err := decodeExpressionList(list)
		if err != nil {
			return expr.Expression{}, err
		}
		return expr.Expression{Op: expr.OpMaximum, List: items}, nil

	case has("value") && has("is-equal") && has("leeway"):
		if err := rejectObjectKeys(obj, "value", "is-equal", "leeway"); err != nil {
			return expr.Expression{}, err
		}
		a, err := child("value")
		if err != nil {
			return expr.Expression{}, err
		}
		b, err := child("is-equal")
		if err != nil {
			return expr.Expression{}, err
		}
		leeway, err := child("leeway")
		if err != nil {
			return expr.Expression{}, err
		}
		return expr.Expression{Op: expr.OpEqual, A: a, B: b, Leeway: &leeway}, nil

	default:
		for key, op := range valueArgOperators {
			if !has(key) {
				continue
			}
			if err := rejectObjectKeys(obj, key); err != nil {
				return expr.Expression{}, err
			}
			arg, err := child(key)
			if err != nil {
				return expr.Expression{}, err
			}
			return expr.Expression{Op: op, Value: &arg}, nil
		}
		return expr.Expression{}, fmt.Errorf("expression object did not match any known operator shape: %v", keysOf(obj))
	}
}

// rejectObjectKeys returns an error if obj contains any key outside
// known, so a mistyped or extraneous key in an expression object (e.g.
// {"value" = ..., "plus" = ..., "extra" = ...}) is rejected at load time
// instead of silently ignored.
func rejectObjectKeys(obj map[string]interface{}, known ...string) error {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	for k := range obj {
		if !allowed[k] {
			return fmt.Errorf("unknown key %q in expression object", k)
		}
	}
	return nil
}

func decodeExpressionList(list []interface{}) ([]expr.Expression, error) {
	items := make([]expr.Expression, len(list))
	for i, item := range list {
		child, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		items[i] = child
	}
	return items, nil
}

func decodeBinary(obj map[string]interface{}, aKey, bKey string, op expr.OpKind) (expr.Expression, error) {
	a, err := decodeExpression(obj[aKey])
	if err != nil {
		return expr.Expression{}, err
	}
	b, err := decodeExpression(obj[bKey])
	if err != nil {
		return expr.Expression{}, err
	}
	return expr.Expression{Op: op, A: a, B: b}, nil
}

func keysOf(obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys
}
