// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package ruleset

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/NotAShelf/watt/internal/expr"
)

// CpuDeltaSpec is the as-configured (not yet evaluated) CPU delta a rule
// contributes. Every field other than For is an optional expression; fields absent from
// the TOML rule stay nil and contribute nothing when folded. Grounded on
// config.rs's CpuDelta, generalized from literal-only fields to
// expression-valued ones per the rule grammar's "a delta field can be any
// expression, not just a constant" requirement.
type CpuDeltaSpec struct {
	For                     []int
	Governor                *expr.Expression
	EPP                     *expr.Expression
	EPB                     *expr.Expression
	FrequencyMinimumMHz     *expr.Expression
	FrequencyMaximumMHz     *expr.Expression
	Turbo                   *expr.Expression
}

// PowerDeltaSpec is the power-supply analogue of CpuDeltaSpec. Grounded
// on config.rs's PowerDelta.
type PowerDeltaSpec struct {
	For                   []string
	ChargeThresholdStart  *expr.Expression
	ChargeThresholdEnd    *expr.Expression
	PlatformProfile       *expr.Expression
}

// Rule is one priority-ordered rule: a condition plus the CPU/power
// deltas it contributes when the condition is true. Grounded on
// config.rs's Rule.
type Rule struct {
	Name      string
	Priority  int
	Condition expr.Expression
	Cpu       CpuDeltaSpec
	Power     PowerDeltaSpec
}

// Config is the fully decoded and validated rule file.
type Config struct {
	Rules []Rule
}

// Load reads and parses the rule file at path, or the built-in default
// when path is empty. It validates that every rule has a distinct
// priority and returns rules sorted ascending by priority, matching
// config.rs's DaemonConfig::load_from.
func Load(path string) (*Config, error) {
	var contents string
	if path != "" {
		raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config from %q", path)
		}
		contents = string(raw)
	} else {
		contents = DefaultConfigTOML
	}

	return Parse(contents)
}

// Parse decodes contents as a rule-file document.
func Parse(contents string) (*Config, error) {
	var raw struct {
		Rule []map[string]interface{} `toml:"rule"`
	}
	if _, err := toml.Decode(contents, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	config := &Config{Rules: make([]Rule, 0, len(raw.Rule))}
	seenPriorities := make(map[int]bool)

	for i, ruleTable := range raw.Rule {
		rule, err := decodeRule(ruleTable)
		if err != nil {
			return nil, errors.Wrapf(err, "rule at index %d is invalid", i)
		}
		if seenPriorities[rule.Priority] {
			return nil, errors.Errorf("each config rule must have a different priority, duplicate: %d", rule.Priority)
		}
		seenPriorities[rule.Priority] = true
		config.Rules = append(config.Rules, rule)
	}

	sort.SliceStable(config.Rules, func(i, j int) bool {
		return config.Rules[i].Priority < config.Rules[j].Priority
	})

	return config, nil
}

// rejectUnknownKeys returns an error if table contains any key outside
// known, mirroring the original's #[serde(deny_unknown_fields)] so a
// typo'd field (e.g. "governer") fails to load instead of silently doing
// nothing.
func rejectUnknownKeys(table map[string]interface{}, known ...string) error {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	for k := range table {
		if !allowed[k] {
			return errors.Errorf("unknown key %q", k)
		}
	}
	return nil
}

func decodeRule(table map[string]interface{}) (Rule, error) {
	if err := rejectUnknownKeys(table, "name", "priority", "if", "cpu", "power"); err != nil {
		return Rule{}, err
	}

	rule := Rule{
		Condition: expr.Expression{Op: expr.OpLiteralBoolean, LiteralBoolean: true},
	}

	name, _ := table["name"].(string)
	rule.Name = name

	priority, ok := table["priority"].(int64)
	if !ok {
		return Rule{}, errors.New("rule is missing a numeric \"priority\" field")
	}
	rule.Priority = int(priority)

	if condRaw, ok := table["if"]; ok {
		cond, err := decodeExpression(condRaw)
		if err != nil {
			return Rule{}, errors.Wrap(err, "failed to decode rule condition")
		}
		rule.Condition = cond
	}

	if cpuRaw, ok := table["cpu"].(map[string]interface{}); ok {
		cpu, err := decodeCpuDeltaSpec(cpuRaw)
		if err != nil {
			return Rule{}, errors.Wrap(err, "failed to decode rule cpu delta")
		}
		rule.Cpu = cpu
	}

	if powerRaw, ok := table["power"].(map[string]interface{}); ok {
		power, err := decodePowerDeltaSpec(powerRaw)
		if err != nil {
			return Rule{}, errors.Wrap(err, "failed to decode rule power delta")
		}
		rule.Power = power
	}

	return rule, nil
}

func decodeCpuDeltaSpec(table map[string]interface{}) (CpuDeltaSpec, error) {
	if err := rejectUnknownKeys(table,
		"for", "governor", "energy-performance-preference", "energy-performance-bias",
		"frequency-mhz-minimum", "frequency-mhz-maximum", "turbo",
	); err != nil {
		return CpuDeltaSpec{}, err
	}

	var spec CpuDeltaSpec

	if forRaw, ok := table["for"].([]interface{}); ok {
		for _, n := range forRaw {
			switch v := n.(type) {
			case int64:
				spec.For = append(spec.For, int(v))
			default:
				return CpuDeltaSpec{}, errors.New("cpu \"for\" must be a list of integers")
			}
		}
	}

	var err error
	if spec.Governor, err = decodeOptionalExpression(table, "governor"); err != nil {
		return CpuDeltaSpec{}, err
	}
	if spec.EPP, err = decodeOptionalExpression(table, "energy-performance-preference"); err != nil {
		return CpuDeltaSpec{}, err
	}
	if spec.EPB, err = decodeOptionalExpression(table, "energy-performance-bias"); err != nil {
		return CpuDeltaSpec{}, err
	}
	if spec.FrequencyMinimumMHz, err = decodeOptionalExpression(table, "frequency-mhz-minimum"); err != nil {
		return CpuDeltaSpec{}, err
	}
	if spec.FrequencyMaximumMHz, err = decodeOptionalExpression(table, "frequency-mhz-maximum"); err != nil {
		return CpuDeltaSpec{}, err
	}
	if spec.Turbo, err = decodeOptionalExpression(table, "turbo"); err != nil {
		return CpuDeltaSpec{}, err
	}

	return spec, nil
}

func decodePowerDeltaSpec(table map[string]interface{}) (PowerDeltaSpec, error) {
	if err := rejectUnknownKeys(table,
		"for", "charge-threshold-start", "charge-threshold-end", "platform-profile",
	); err != nil {
		return PowerDeltaSpec{}, err
	}

	var spec PowerDeltaSpec

	if forRaw, ok := table["for"].([]interface{}); ok {
		for _, n := range forRaw {
			switch v := n.(type) {
			case string:
				spec.For = append(spec.For, v)
			default:
				return PowerDeltaSpec{}, errors.New("power \"for\" must be a list of strings")
			}
		}
	}

	var err error
	if spec.ChargeThresholdStart, err = decodeOptionalExpression(table, "charge-threshold-start"); err != nil {
		return PowerDeltaSpec{}, err
	}
	if spec.ChargeThresholdEnd, err = decodeOptionalExpression(table, "charge-threshold-end"); err != nil {
		return PowerDeltaSpec{}, err
	}
	if spec.PlatformProfile, err = decodeOptionalExpression(table, "platform-profile"); err != nil {
		return PowerDeltaSpec{}, err
	}

	return spec, nil
}

func decodeOptionalExpression(table map[string]interface{}, key string) (*expr.Expression, error) {
	raw, ok := table[key]
	if !ok {
		return nil, nil
	}
	e, err := decodeExpression(raw)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
