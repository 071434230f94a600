package claude

import (
	"math"
	"time"

	"github.com/janekbaraniewski/claudewatch/internal/core"
)

const weekSeconds = 7 * 24 * 60 * 60

// Transform flattens a raw usage snapshot into the metric map. It is total:
// missing or malformed sections and fields degrade to absent keys, never to
// an error, so a partially-available response still yields what it can.
func Transform(raw RawSnapshot, now time.Time) core.MetricMap {
	data := core.MetricMap{}

	if fiveHour, ok := section(raw, "five_hour"); ok {
		putFloat(data, core.MetricSessionUsagePercent, fiveHour, "utilization")
		putString(data, core.MetricSessionResetTime, fiveHour, "resets_at")
	}

	if sevenDay, ok := section(raw, "seven_day"); ok {
		putFloat(data, core.MetricWeekUsagePercent, sevenDay, "utilization")
		putString(data, core.MetricWeekResetTime, sevenDay, "resets_at")

		utilization, hasUtilization := floatField(sevenDay, "utilization")
		resetsAt, hasReset := stringField(sevenDay, "resets_at")
		if hasUtilization && hasReset {
			if pace, ok := weekPace(utilization, resetsAt, now); ok {
				data[core.MetricWeekUsagePace] = pace
			}
		}
	}

	if sonnet, ok := section(raw, "seven_day_sonnet"); ok {
		putFloat(data, core.MetricWeekSonnetUsagePercent, sonnet, "utilization")
		putString(data, core.MetricWeekSonnetResetTime, sonnet, "resets_at")
	}

	if extra, ok := section(raw, "extra_usage"); ok {
		enabled, _ := boolField(extra, "is_enabled")
		data[core.MetricExtraUsageEnabled] = enabled
		putFloat(data, core.MetricExtraUsagePercent, extra, "utilization")

		// The API reports currency in cents; expose decimal amounts. Absent
		// fields stay absent rather than turning into zero.
		if cents, ok := floatField(extra, "used_credits"); ok {
			data[core.MetricExtraUsageCredits] = cents / 100
		}
		if cents, ok := floatField(extra, "monthly_limit"); ok {
			data[core.MetricExtraUsageLimit] = cents / 100
		}
	}

	return data
}

// weekPace compares actual weekly utilization against a uniform-consumption
// baseline derived from how far in the future the window reset is. Positive
// means usage runs ahead of the baseline.
func weekPace(utilization float64, resetsAt string, now time.Time) (float64, bool) {
	resetTime, err := parseResetTime(resetsAt)
	if err != nil {
		return 0, false
	}

	elapsed := weekSeconds - resetTime.Sub(now).Seconds()
	percentElapsed := elapsed / weekSeconds * 100
	return math.Round((utilization-percentElapsed)*10) / 10, true
}

// parseResetTime accepts RFC 3339 timestamps, with a bare
// (zone-less) fallback interpreted as UTC.
func parseResetTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, time.UTC)
}

// section returns a sub-object only when present and non-empty, mirroring
// the upstream convention that an empty section means "nothing to report".
func section(raw RawSnapshot, key string) (map[string]any, bool) {
	value, ok := raw[key].(map[string]any)
	if !ok || len(value) == 0 {
		return nil, false
	}
	return value, true
}

func floatField(section map[string]any, key string) (float64, bool) {
	value, ok := section[key].(float64)
	return value, ok
}

func stringField(section map[string]any, key string) (string, bool) {
	value, ok := section[key].(string)
	return value, ok && value != ""
}

func boolField(section map[string]any, key string) (bool, bool) {
	value, ok := section[key].(bool)
	return value, ok
}

func putFloat(data core.MetricMap, metric core.MetricKey, section map[string]any, key string) {
	if value, ok := floatField(section, key); ok {
		data[metric] = value
	}
}

func putString(data core.MetricMap, metric core.MetricKey, section map[string]any, key string) {
	if value, ok := stringField(section, key); ok {
		data[metric] = value
	}
}
