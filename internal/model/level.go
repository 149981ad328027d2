package model

import "time"

// LevelKind distinguishes support from resistance.
type LevelKind string

const (
	Support    LevelKind = "support"
	Resistance LevelKind = "resistance"
)

// Level is a detected local extremum of the close series.
type Level struct {
	Kind  LevelKind `json:"kind"`
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}
