// Package geo holds the small geospatial primitives the cache layer
// depends on: the WKT point codec and great-circle distance.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pedra/atlas/internal/domain/model"
)

const earthRadiusMeters = 6371000.0

// FormatPointWKT renders WGS84 coordinates as a WKT point literal.
// WKT puts longitude first; getting this backwards corrupts every
// cached row silently, so all geometry strings go through here.
func FormatPointWKT(c model.Coordinates) string {
	return fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(c.Lng, 'f', -1, 64),
		strconv.FormatFloat(c.Lat, 'f', -1, 64),
	)
}

// ParsePointWKT parses a "POINT(lng lat)" literal back into
// coordinates.
func ParsePointWKT(s string) (model.Coordinates, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(s), "POINT(")
	if !ok {
		return model.Coordinates{}, fmt.Errorf("%w: %q", ErrBadPoint, s)
	}
	body, ok = strings.CutSuffix(body, ")")
	if !ok {
		return model.Coordinates{}, fmt.Errorf("%w: %q", ErrBadPoint, s)
	}
	parts := strings.Fields(body)
	if len(parts) != 2 {
		return model.Coordinates{}, fmt.Errorf("%w: %q", ErrBadPoint, s)
	}
	lng, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: lng %q", ErrBadPoint, parts[0])
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: lat %q", ErrBadPoint, parts[1])
	}
	c := model.Coordinates{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return model.Coordinates{}, err
	}
	return c, nil
}

// Distance returns the haversine distance between two points in meters.
func Distance(a, b model.Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLng*sinLng
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
