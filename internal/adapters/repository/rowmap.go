package repository

import (
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pedra/atlas/internal/domain/geo"
	"github.com/pedra/atlas/internal/domain/model"
)

// Timestamp layouts the store is known to hand back. RFC3339 variants
// come from our own writes; the space-separated form is what Postgres
// text casts produce.
var rowTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseRowTime(s string) (time.Time, error) {
	for _, layout := range rowTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrBadRow, s)
}

// LocationToRow converts a canonical Location into its storage row.
// Coordinates render as a WKT point with longitude first.
func LocationToRow(loc model.Location) (LocationRow, error) {
	if err := loc.Validate(); err != nil {
		return LocationRow{}, fmt.Errorf("%w: %w", ErrBadRow, err)
	}

	var hours []byte
	if len(loc.Hours) > 0 {
		b, err := json.Marshal(loc.Hours)
		if err != nil {
			return LocationRow{}, fmt.Errorf("%w: hours: %w", ErrBadRow, err)
		}
		hours = b
	}

	updated := loc.LastUpdated
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	return LocationRow{
		ID:           loc.ID,
		Name:         loc.Name,
		Description:  loc.Description,
		Coordinates:  geo.FormatPointWKT(loc.Coordinates),
		Address:      loc.Address,
		Rating:       loc.Rating,
		TotalRatings: loc.TotalRatings,
		Photos:       loc.Photos,
		Website:      loc.Website,
		Phone:        loc.Phone,
		Hours:        hours,
		PriceLevel:   loc.PriceLevel,
		Types:        loc.Types,
		Source:       string(loc.Source),
		SourceID:     loc.SourceID,
		LastUpdated:  updated.Format(time.RFC3339Nano),
	}, nil
}

// LocationFromRow converts a storage row back into the canonical
// Location. Stringified ordinates are parsed to floats; a parse
// failure fails this row alone so callers can skip-and-log.
func LocationFromRow(row LocationRow) (model.Location, error) {
	var coords model.Coordinates
	if row.Lat == "" && row.Lng == "" && row.Coordinates != "" {
		// Rows that never went through the store still carry the WKT
		// literal; parse it so toRow/fromRow compose.
		c, err := geo.ParsePointWKT(row.Coordinates)
		if err != nil {
			return model.Location{}, fmt.Errorf("%w: %w", ErrBadRow, err)
		}
		coords = c
	} else {
		lat, err := strconv.ParseFloat(row.Lat, 64)
		if err != nil {
			return model.Location{}, fmt.Errorf("%w: lat %q", ErrBadRow, row.Lat)
		}
		lng, err := strconv.ParseFloat(row.Lng, 64)
		if err != nil {
			return model.Location{}, fmt.Errorf("%w: lng %q", ErrBadRow, row.Lng)
		}
		coords = model.Coordinates{Lat: lat, Lng: lng}
	}

	var hours []model.OpeningPeriod
	if len(row.Hours) > 0 {
		if err := json.Unmarshal(row.Hours, &hours); err != nil {
			return model.Location{}, fmt.Errorf("%w: hours: %w", ErrBadRow, err)
		}
	}

	updated := time.Now().UTC()
	if row.LastUpdated != "" {
		t, err := parseRowTime(row.LastUpdated)
		if err != nil {
			return model.Location{}, err
		}
		updated = t
	}

	loc := model.Location{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Coordinates:  coords,
		Address:      row.Address,
		Rating:       row.Rating,
		TotalRatings: row.TotalRatings,
		Photos:       row.Photos,
		Website:      row.Website,
		Phone:        row.Phone,
		Hours:        hours,
		PriceLevel:   row.PriceLevel,
		Types:        row.Types,
		Source:       model.LocationSource(row.Source),
		SourceID:     row.SourceID,
		LastUpdated:  updated,
	}
	if loc.Photos == nil {
		loc.Photos = []string{}
	}
	if loc.Types == nil {
		loc.Types = []string{}
	}
	if err := loc.Validate(); err != nil {
		return model.Location{}, fmt.Errorf("%w: %w", ErrBadRow, err)
	}
	return loc, nil
}

// EventToRow converts a canonical Event into its storage row.
func EventToRow(ev model.Event) (EventRow, error) {
	if err := ev.Validate(); err != nil {
		return EventRow{}, fmt.Errorf("%w: %w", ErrBadRow, err)
	}

	var end *string
	if ev.EndTime != nil {
		s := ev.EndTime.Format(time.RFC3339Nano)
		end = &s
	}
	var cost *string
	if ev.CostType != nil {
		s := string(*ev.CostType)
		cost = &s
	}

	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	updated := ev.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	return EventRow{
		ID:           ev.ID,
		Title:        ev.Title,
		Description:  ev.Description,
		StartTime:    ev.StartTime.Format(time.RFC3339Nano),
		EndTime:      end,
		LocationName: ev.LocationName,
		Latitude:     ev.Coordinates.Lat,
		Longitude:    ev.Coordinates.Lng,
		Address:      ev.Address,
		ImageURL:     ev.ImageURL,
		Organizer:    ev.Organizer,
		Category:     ev.Category,
		Tags:         ev.Tags,
		Source:       string(ev.Source),
		ExternalID:   ev.ExternalID,
		URL:          ev.URL,
		CostType:     cost,
		CostAmount:   ev.CostAmount,
		Visibility:   string(ev.Visibility),
		OwnerID:      ev.OwnerID,
		CreatedAt:    created.Format(time.RFC3339Nano),
		UpdatedAt:    updated.Format(time.RFC3339Nano),
	}, nil
}

// EventFromRow converts a storage row back into the canonical Event.
func EventFromRow(row EventRow) (model.Event, error) {
	start, err := parseRowTime(row.StartTime)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: start_time %q", ErrBadRow, row.StartTime)
	}

	var end *time.Time
	if row.EndTime != nil && *row.EndTime != "" {
		t, err := parseRowTime(*row.EndTime)
		if err != nil {
			return model.Event{}, fmt.Errorf("%w: end_time %q", ErrBadRow, *row.EndTime)
		}
		end = &t
	}

	var cost *model.CostType
	if row.CostType != nil && *row.CostType != "" {
		c := model.CostType(*row.CostType)
		cost = &c
	}

	created := time.Now().UTC()
	if row.CreatedAt != "" {
		if t, err := parseRowTime(row.CreatedAt); err == nil {
			created = t
		}
	}
	updated := created
	if row.UpdatedAt != "" {
		if t, err := parseRowTime(row.UpdatedAt); err == nil {
			updated = t
		}
	}

	ev := model.Event{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		StartTime:    start,
		EndTime:      end,
		LocationName: row.LocationName,
		Coordinates:  model.Coordinates{Lat: row.Latitude, Lng: row.Longitude},
		Address:      row.Address,
		ImageURL:     row.ImageURL,
		Organizer:    row.Organizer,
		Category:     row.Category,
		Tags:         row.Tags,
		Source:       model.EventSource(row.Source),
		ExternalID:   row.ExternalID,
		URL:          row.URL,
		CostType:     cost,
		CostAmount:   row.CostAmount,
		Visibility:   model.Visibility(row.Visibility),
		OwnerID:      row.OwnerID,
		CreatedAt:    created,
		UpdatedAt:    updated,
	}
	if err := ev.Validate(); err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrBadRow, err)
	}
	return ev, nil
}
