package measurements

import (
	"strconv"
	"time"

	"github.com/slickwilli/shelly-collector/models"
	"github.com/slickwilli/shelly-collector/pkg/clients/shelly"
	"go.uber.org/zap"
)

// WattMinutesToWattHours approximates division by 60.
const WattMinutesToWattHours = 0.0166667

// Metric describes how one point is derived from a status document.
type Metric struct {
	Measurement string
	Field       string
	Path        []string
	// Default is used when the source value is absent. Nil means skip.
	Default   *float64
	Transform func(float64) float64
	// Label names the value in the run summary.
	Label string
}

func defaultValue(v float64) *float64 {
	return &v
}

func wattMinutesToWattHours(v float64) float64 {
	return v * WattMinutesToWattHours
}

var (
	Power = Metric{
		Measurement: "pv_power",
		Field:       "power_w",
		Path:        []string{"switch:0", "apower"},
		Default:     defaultValue(0),
		Label:       "power",
	}
	Voltage = Metric{
		Measurement: "voltage",
		Field:       "voltage_v",
		Path:        []string{"switch:0", "voltage"},
		Label:       "voltage",
	}
	Current = Metric{
		Measurement: "current",
		Field:       "current_a",
		Path:        []string{"switch:0", "current"},
		Label:       "current",
	}
	AccumulatedEnergy = Metric{
		Measurement: "accumulated_energy",
		Field:       "energy_wh",
		Path:        []string{"switch:0", "aenergy", "total"},
		Transform:   wattMinutesToWattHours,
		Label:       "energy",
	}
	ExternalTemperature = Metric{
		Measurement: "external_temperature",
		Field:       "temp_c",
		Path:        []string{"temperature:100", "tC"},
		Label:       "temp",
	}
	DeviceTemperature = Metric{
		Measurement: "device_temperature",
		Field:       "temp_c",
		Path:        []string{"switch:0", "temperature", "tC"},
		Label:       "device_temp",
	}
)

// Default returns the metric table in write order. The switch's internal
// temperature is appended only when requested.
func Default(internalTemperature bool) []Metric {
	metrics := []Metric{Power, Voltage, Current, AccumulatedEnergy, ExternalTemperature}
	if internalTemperature {
		metrics = append(metrics, DeviceTemperature)
	}
	return metrics
}

type Derived struct {
	Metric  Metric
	Value   float64
	Present bool
}

// Point builds the point for d, stamped with ts truncated to the second.
func (d Derived) Point(device string, ts time.Time) models.Point {
	return models.Point{
		Measurement: d.Metric.Measurement,
		Device:      device,
		Field:       d.Metric.Field,
		Value:       d.Value,
		Timestamp:   ts.UTC().Truncate(time.Second),
	}
}

// Derive evaluates every metric against status. Each metric is independent:
// an absent or non-numeric source only marks that entry as not present.
func Derive(status shelly.DeviceStatus, metrics []Metric) []Derived {
	derived := make([]Derived, 0, len(metrics))
	for _, m := range metrics {
		d := Derived{Metric: m}
		if v, ok := numeric(status, m.Path); ok {
			d.Value, d.Present = v, true
		} else if m.Default != nil {
			d.Value, d.Present = *m.Default, true
		}
		if d.Present && m.Transform != nil {
			d.Value = m.Transform(d.Value)
		}
		derived = append(derived, d)
	}
	return derived
}

func numeric(status shelly.DeviceStatus, path []string) (float64, bool) {
	raw, ok := status.Lookup(path...)
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Present filters derived down to the entries that will be written.
func Present(derived []Derived) []Derived {
	out := make([]Derived, 0, len(derived))
	for _, d := range derived {
		if d.Present {
			out = append(out, d)
		}
	}
	return out
}

// Summary renders every derived value as a log field, "unknown" when skipped.
func Summary(derived []Derived) []zap.Field {
	fields := make([]zap.Field, 0, len(derived))
	for _, d := range derived {
		value := "unknown"
		if d.Present {
			value = strconv.FormatFloat(d.Value, 'f', -1, 64)
		}
		fields = append(fields, zap.String(d.Metric.Label, value))
	}
	return fields
}
