package models

import "time"

// Point is one measurement ready to be written: a single numeric field
// tagged with the device it came from.
type Point struct {
	Measurement string
	Device      string
	Field       string
	Value       float64
	Timestamp   time.Time
}

// Reading is the ClickHouse row for a Point.
type Reading struct {
	Bucket      string
	Measurement string
	Device      string
	Field       string
	Value       float64
	Timestamp   time.Time
}

func NewReading(bucket string, p Point) Reading {
	return Reading{
		Bucket:      bucket,
		Measurement: p.Measurement,
		Device:      p.Device,
		Field:       p.Field,
		Value:       p.Value,
		Timestamp:   p.Timestamp,
	}
}
