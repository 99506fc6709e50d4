// Package model contains the canonical entities passed between layers.
//
// Every provider adapter normalizes into these shapes and every cache
// row converts back into them; no provider-native shape crosses a
// package boundary.
package model

import (
	"fmt"
	"time"
)

// LocationSource identifies the provenance of a Location.
type LocationSource string

// Known location sources.
const (
	SourceGoogle LocationSource = "google"
	SourceYelp   LocationSource = "yelp"
	SourceOSM    LocationSource = "osm"
)

// Valid reports whether s is a known location source.
func (s LocationSource) Valid() bool {
	switch s {
	case SourceGoogle, SourceYelp, SourceOSM:
		return true
	}
	return false
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks the WGS84 ranges.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat %v out of range", ErrInvalidCoordinates, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lng %v out of range", ErrInvalidCoordinates, c.Lng)
	}
	return nil
}

// OpeningPeriod is one open/close span on a day of week (0=Sunday).
// Open and Close use the provider-local HHMM encoding.
type OpeningPeriod struct {
	Open  string `json:"open"`
	Close string `json:"close"`
	Day   int    `json:"day"`
}

// Location is the unified place entity. Optional scalar fields are
// pointers so "provider did not say" stays distinguishable from
// "provider said zero".
type Location struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Coordinates  Coordinates     `json:"coordinates"`
	Address      *string         `json:"address,omitempty"`
	Rating       *float64        `json:"rating,omitempty"`
	TotalRatings *int            `json:"totalRatings,omitempty"`
	Photos       []string        `json:"photos"`
	Website      *string         `json:"website,omitempty"`
	Phone        *string         `json:"phone,omitempty"`
	Hours        []OpeningPeriod `json:"hours,omitempty"`
	PriceLevel   *int            `json:"priceLevel,omitempty"`
	Types        []string        `json:"types"`
	Source       LocationSource  `json:"source"`
	SourceID     string          `json:"sourceId"`
	LastUpdated  time.Time       `json:"lastUpdated"`
}

// ConflictKey returns the (source, sourceId) pair that identifies the
// same real-world place across repeated fetches.
func (l Location) ConflictKey() string {
	return string(l.Source) + "_" + l.SourceID
}

// Validate checks the fields every adapter and row conversion must
// guarantee before a Location leaves its boundary.
func (l Location) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidEntity)
	}
	if !l.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidEntity, l.Source)
	}
	if l.SourceID == "" {
		return fmt.Errorf("%w: missing source id", ErrInvalidEntity)
	}
	return l.Coordinates.Validate()
}
