// Package fixtures holds sample sources for ingestion tests.
package fixtures

import (
	"errors"
	"fmt"
)

// ErrNoCarrier indicates no carrier serves the destination.
var ErrNoCarrier = errors.New("no carrier available")

// Shipment is one outbound parcel.
type Shipment struct {
	ID          string
	Destination string
	WeightKg    float64
}

// Quote estimates shipping cost by weight.
func Quote(s Shipment) (float64, error) {
	if s.Destination == "" {
		return 0, ErrNoCarrier
	}
	return 4.5 + s.WeightKg*1.2, nil
}

// Label renders the carrier label text.
func (s Shipment) Label() string {
	return fmt.Sprintf("%s -> %s (%.1fkg)", s.ID, s.Destination, s.WeightKg)
}
