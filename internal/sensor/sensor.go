// Package sensor turns raw metric values into display-ready sensor states.
// Timestamps stay as RFC 3339 strings in the metric map and are only parsed
// here, so one malformed reset time never poisons a poll cycle.
package sensor

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/claudewatch/internal/core"
)

// Value is one sensor in its display form. Available is false when the
// metric is absent from the map or its value cannot be rendered.
type Value struct {
	Definition core.SensorDefinition
	State      string
	Available  bool
}

// Resolve maps every defined sensor against the metric map, in display
// order. Metrics the provider omitted come back unavailable rather than
// being dropped, so a dashboard always shows the full set.
func Resolve(metrics core.MetricMap) []Value {
	return lo.Map(core.SensorDefinitions, func(def core.SensorDefinition, _ int) Value {
		raw, ok := metrics[def.Key]
		if !ok {
			return Value{Definition: def}
		}
		state, ok := render(def, raw)
		if !ok {
			return Value{Definition: def}
		}
		return Value{Definition: def, State: state, Available: true}
	})
}

func render(def core.SensorDefinition, raw any) (string, bool) {
	if def.Class == core.DeviceClassTimestamp {
		s, ok := raw.(string)
		if !ok {
			log.Printf("sensor %s: timestamp value is %T, not a string", def.Key, raw)
			return "", false
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			log.Printf("sensor %s: unparseable timestamp %q: %v", def.Key, s, err)
			return "", false
		}
		return ts.UTC().Format(time.RFC3339), true
	}

	switch v := raw.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case string:
		return v, true
	default:
		log.Printf("sensor %s: unsupported value type %T", def.Key, raw)
		return "", false
	}
}

// Display renders a value with its unit for human-facing output, or a dash
// when the sensor is unavailable.
func (v Value) Display() string {
	if !v.Available {
		return "—"
	}
	if v.Definition.Unit != "" {
		return fmt.Sprintf("%s %s", v.State, v.Definition.Unit)
	}
	return v.State
}
