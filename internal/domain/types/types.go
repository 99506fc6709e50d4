// Package types contains request shapes shared between the HTTP layer
// and the aggregation service.
package types

import "time"

// NearbySearch parameterizes a radius search around a point.
// Radius is in meters; zero means "use the configured default".
type NearbySearch struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Radius  float64 `json:"radius,omitempty"`
	Keyword string  `json:"keyword,omitempty"`
	Type    string  `json:"type,omitempty"`
}

// TextSearch parameterizes a free-text search, optionally anchored to a
// point. Lat and Lng are pointers: a text search without an anchor is
// legal and skips the cache entirely.
type TextSearch struct {
	Query  string   `json:"query"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
	Radius float64  `json:"radius,omitempty"`
}

// Anchored reports whether the search carries a usable location anchor.
func (s TextSearch) Anchored() bool {
	return s.Lat != nil && s.Lng != nil
}

// EventSearch parameterizes an event radius search with an optional
// date window.
type EventSearch struct {
	Lat    float64    `json:"lat"`
	Lng    float64    `json:"lng"`
	Radius float64    `json:"radius,omitempty"`
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
}

// NewEvent is the write shape for user-created events. Validation tags
// are enforced by the aggregator before any store write.
type NewEvent struct {
	Title        string     `json:"title" validate:"required"`
	Description  *string    `json:"description,omitempty"`
	StartTime    time.Time  `json:"startTime" validate:"required"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	LocationName string     `json:"locationName" validate:"required"`
	Lat          float64    `json:"lat" validate:"latitude"`
	Lng          float64    `json:"lng" validate:"longitude"`
	Address      *string    `json:"address,omitempty"`
	ImageURL     *string    `json:"imageUrl,omitempty"`
	Category     *string    `json:"category,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	CostType     *string    `json:"costType,omitempty" validate:"omitempty,oneof=free paid donation"`
	CostAmount   *float64   `json:"costAmount,omitempty" validate:"omitempty,gte=0"`
	Visibility   string     `json:"visibility" validate:"required,oneof=public private shared"`
	OwnerID      *string    `json:"ownerId,omitempty"`
}
