package protocol

import (
	"sort"
	"time"
)

// Report types carried in the "t" field.
const (
	ReportTypeSensors = "sensors"
)

// Sensor names after short-key expansion.
const (
	SensorPIR         = "pir_sensor"
	SensorHumidity    = "humidity"
	SensorTemperature = "temperature"
)

// SensorKeys maps the one-letter payload keys used on air to sensor names.
var SensorKeys = map[string]string{
	"p": SensorPIR,
	"h": SensorHumidity,
	"t": SensorTemperature,
}

// SensorReport is the message the sensor nodes send, e.g.
//
//	{"t":"sensors","p":{"p":0,"h":41.5,"t":22.1}}
//
// A nil value means the node could not read that sensor.
type SensorReport struct {
	Type    string              `json:"t" cbor:"t"`
	Payload map[string]*float64 `json:"p" cbor:"p"`
}

// Reading is one expanded sensor value.
type Reading struct {
	Sensor     string    `json:"sensor"`
	Value      float64   `json:"value"`
	ReceivedAt time.Time `json:"received_at"`
}

// Readings expands the short keys, skipping unknown keys and missing values.
// The result is ordered by sensor name.
func (r SensorReport) Readings(at time.Time) []Reading {
	if r.Type != ReportTypeSensors {
		return nil
	}
	out := make([]Reading, 0, len(r.Payload))
	for key, v := range r.Payload {
		name, ok := SensorKeys[key]
		if !ok || v == nil {
			continue
		}
		out = append(out, Reading{Sensor: name, Value: *v, ReceivedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sensor < out[j].Sensor })
	return out
}
