// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package ruleset

// DefaultConfigTOML is loaded when the daemon is started without an
// explicit --config path. It encodes a baseline: powersave with turbo off
// and a 75-80% charge window while discharging at under 30% CPU usage,
// performance with turbo on and a 95-100% charge window on AC, and a
// lowest-priority schedutil/balance_performance fallback for every other
// case. Grounded on config.rs's DaemonConfig::DEFAULT
// (include_str!("config.toml")) — the original ships a literal file this
// module inlines as a string instead, since there is no embed target to
// mirror it onto.
const DefaultConfigTOML = `
[[rule]]
name = "battery saver"
priority = 10
if = { value = "?discharging", and = { value = "%cpu-usage", is-less-than = 0.3 } }

[rule.cpu]
governor = "powersave"
energy-performance-preference = "power"
turbo = false

[rule.power]
charge-threshold-start = 75
charge-threshold-end = 80

[[rule]]
name = "plugged in performance"
priority = 20
if = { not = "?discharging" }

[rule.cpu]
governor = "performance"
energy-performance-preference = "performance"
turbo = true

[rule.power]
charge-threshold-start = 95
charge-threshold-end = 100

[[rule]]
name = "balanced default"
priority = 1
if = true

[rule.cpu]
governor = "schedutil"
energy-performance-preference = "balance_performance"
turbo = true
`
