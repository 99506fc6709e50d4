// Package repository defines the geospatial cache store contract and
// its row shapes. The store is a collaborator queried by the
// aggregators, not a layer they own: it answers "what do we already
// know near this point" and accepts idempotent conflict-keyed upserts.
package repository

import (
	"context"
	"time"
)

// LocationRow is the storage representation of a Location. Write-path
// rows carry Coordinates as a WKT point literal (longitude first);
// read-path rows carry Lat and Lng as the strings geospatial query
// layers return.
type LocationRow struct {
	ID          string
	Name        string
	Description *string

	// Coordinates holds "POINT(lng lat)" on the write path.
	Coordinates string
	// Lat and Lng hold stringified ordinates on the read path.
	Lat string
	Lng string

	Address      *string
	Rating       *float64
	TotalRatings *int
	Photos       []string
	Website      *string
	Phone        *string
	Hours        []byte // JSON-encoded opening periods
	PriceLevel   *int
	Types        []string
	Source       string
	SourceID     string
	LastUpdated  string // ISO-8601
}

// EventRow is the storage representation of an Event. Events store
// latitude/longitude as plain numeric columns rather than a geometry.
type EventRow struct {
	ID           string
	Title        string
	Description  *string
	StartTime    string // ISO-8601
	EndTime      *string
	LocationName string
	Latitude     float64
	Longitude    float64
	Address      *string
	ImageURL     *string
	Organizer    *string
	Category     *string
	Tags         []string
	Source       string
	ExternalID   *string
	URL          *string
	CostType     *string
	CostAmount   *float64
	Visibility   string
	OwnerID      *string
	CreatedAt    string
	UpdatedAt    string
}

// LocationStore is the cache contract for places.
type LocationStore interface {
	// QueryNearby returns cached rows within radiusMeters of the point,
	// optionally keyword-filtered (store-side match, opaque here).
	QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, keyword string) ([]LocationRow, error)

	// UpsertLocations inserts or updates rows keyed on
	// (source, source_id). One malformed row must not sink the batch:
	// valid rows are written and per-row failures are reported joined.
	UpsertLocations(ctx context.Context, rows []LocationRow) error
}

// EventStore is the cache contract for events.
type EventStore interface {
	// QueryNearbyEvents returns cached rows within radiusMeters whose
	// updated_at falls inside window (the event cache validity window).
	QueryNearbyEvents(ctx context.Context, lat, lng, radiusMeters float64, window time.Duration) ([]EventRow, error)

	// UpsertEvents inserts or updates rows keyed on (source, external_id).
	UpsertEvents(ctx context.Context, rows []EventRow) error

	// EventsByOwner returns a user's events ordered by start time asc.
	EventsByOwner(ctx context.Context, ownerID string) ([]EventRow, error)

	// InsertEvent writes a single row and returns it as stored
	// (store-assigned id and timestamps).
	InsertEvent(ctx context.Context, row EventRow) (EventRow, error)
}

// Store bundles both contracts plus lifecycle, implemented by the
// Postgres client.
type Store interface {
	LocationStore
	EventStore

	Ping(ctx context.Context) error
	Close()
}
