package models

import "time"

// Boundary identifies which configured threshold a price crossed.
type Boundary string

const (
	BoundaryUpper Boundary = "upper"
	BoundaryLower Boundary = "lower"
)

// Valid reports whether b is one of the two known boundaries.
func (b Boundary) Valid() bool {
	return b == BoundaryUpper || b == BoundaryLower
}

// AlertEvent is the payload published to live subscribers when a threshold
// breach fires. The same shape is persisted as an alert history record.
type AlertEvent struct {
	ID          int64     `json:"-"`
	AssetID     string    `json:"assetId"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Boundary    Boundary  `json:"boundary"`
	Price       float64   `json:"price"`
	Threshold   float64   `json:"threshold"`
	TriggeredAt time.Time `json:"time"`
}
