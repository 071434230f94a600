package core

import "github.com/samber/lo"

type DeviceClass string

const (
	DeviceClassNone      DeviceClass = ""
	DeviceClassTimestamp DeviceClass = "timestamp"
)

// SensorDefinition describes how one metric key is presented: display name,
// unit and device class. Icons use the mdi: naming scheme so downstream
// dashboards can pick them up directly.
type SensorDefinition struct {
	Key   MetricKey
	Name  string
	Unit  string
	Icon  string
	Class DeviceClass
}

var SensorDefinitions = []SensorDefinition{
	{Key: MetricSessionUsagePercent, Name: "Session Usage", Unit: "%", Icon: "mdi:timer-sand"},
	{Key: MetricSessionResetTime, Name: "Session Reset Time", Icon: "mdi:timer-refresh", Class: DeviceClassTimestamp},
	{Key: MetricWeekUsagePercent, Name: "Week Usage", Unit: "%", Icon: "mdi:calendar-week"},
	{Key: MetricWeekUsagePace, Name: "Week Usage Pace", Unit: "%", Icon: "mdi:speedometer"},
	{Key: MetricWeekResetTime, Name: "Weekly Reset Time", Icon: "mdi:calendar-clock", Class: DeviceClassTimestamp},
	{Key: MetricWeekSonnetUsagePercent, Name: "Weekly Sonnet Usage", Unit: "%", Icon: "mdi:calendar-week"},
	{Key: MetricWeekSonnetResetTime, Name: "Weekly Sonnet Reset Time", Icon: "mdi:calendar-clock", Class: DeviceClassTimestamp},
	{Key: MetricExtraUsageEnabled, Name: "Extra Usage Enabled", Icon: "mdi:toggle-switch"},
	{Key: MetricExtraUsagePercent, Name: "Extra Usage", Unit: "%", Icon: "mdi:credit-card"},
	{Key: MetricExtraUsageCredits, Name: "Extra Usage Credits", Unit: "credits", Icon: "mdi:credit-card-outline"},
	{Key: MetricExtraUsageLimit, Name: "Extra Usage Limit", Unit: "credits", Icon: "mdi:credit-card-settings"},
}

// SensorKeys returns the metric keys in display order.
func SensorKeys() []MetricKey {
	return lo.Map(SensorDefinitions, func(d SensorDefinition, _ int) MetricKey {
		return d.Key
	})
}

// SensorDefinitionFor looks up the definition for a metric key.
func SensorDefinitionFor(key MetricKey) (SensorDefinition, bool) {
	return lo.Find(SensorDefinitions, func(d SensorDefinition) bool {
		return d.Key == key
	})
}
