package core

import "time"

// MetricKey identifies one flattened usage metric. The set is fixed; the
// display layer maps each key to a unit and device class.
type MetricKey string

const (
	MetricSessionUsagePercent    MetricKey = "session_usage_percent"
	MetricSessionResetTime       MetricKey = "session_reset_time"
	MetricWeekUsagePercent       MetricKey = "week_usage_percent"
	MetricWeekUsagePace          MetricKey = "week_usage_pace"
	MetricWeekResetTime          MetricKey = "week_reset_time"
	MetricWeekSonnetUsagePercent MetricKey = "week_sonnet_usage_percent"
	MetricWeekSonnetResetTime    MetricKey = "week_sonnet_reset_time"
	MetricExtraUsageEnabled      MetricKey = "extra_usage_enabled"
	MetricExtraUsagePercent      MetricKey = "extra_usage_percent"
	MetricExtraUsageCredits      MetricKey = "extra_usage_credits"
	MetricExtraUsageLimit        MetricKey = "extra_usage_limit"
)

// MetricMap holds one poll's flattened metrics. Values are float64
// (percentages, currency amounts), string (ISO-8601 reset times) or bool.
// A key absent from the map means the metric is unavailable.
type MetricMap map[MetricKey]any

// Clone returns a shallow copy; values are immutable scalars.
func (m MetricMap) Clone() MetricMap {
	if m == nil {
		return nil
	}
	out := make(MetricMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Status string

const (
	StatusUnknown Status = ""
	StatusOK      Status = "OK"
	StatusAuth    Status = "AUTH_REQUIRED"
	StatusError   Status = "ERROR"
)

// Outcome is the result of one poll cycle: either a fresh metric map or a
// failure with a human-readable reason.
type Outcome struct {
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Metrics   MetricMap `json:"metrics,omitempty"`
	Message   string    `json:"message,omitempty"`
}

func (o Outcome) Failed() bool {
	return o.Status != StatusOK
}
