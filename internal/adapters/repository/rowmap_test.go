package repository

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/pedra/atlas/internal/domain/model"
)

func strPtr(s string) *string                  { return &s }
func floatPtr(f float64) *float64              { return &f }
func intPtr(i int) *int                        { return &i }
func costPtr(c model.CostType) *model.CostType { return &c }

func fullLocation() model.Location {
	return model.Location{
		ID:           "loc-1",
		Name:         "Thinking Cup",
		Description:  strPtr("espresso bar"),
		Coordinates:  model.Coordinates{Lat: 42.3601, Lng: -71.0589},
		Address:      strPtr("165 Tremont St"),
		Rating:       floatPtr(4.6),
		TotalRatings: intPtr(1287),
		Photos:       []string{"photoref-1", "photoref-2"},
		Website:      strPtr("https://thinkingcup.example"),
		Phone:        strPtr("+1 617 555 0101"),
		Hours: []model.OpeningPeriod{
			{Open: "0700", Close: "1900", Day: 1},
			{Open: "0700", Close: "2000", Day: 2},
		},
		PriceLevel:  intPtr(2),
		Types:       []string{"cafe", "food"},
		Source:      model.SourceGoogle,
		SourceID:    "ChIJtc",
		LastUpdated: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestLocationRowMapping(t *testing.T) {
	convey.Convey("Given a fully populated location", t, func() {
		loc := fullLocation()

		convey.Convey("When converted to a row", func() {
			row, err := LocationToRow(loc)

			convey.Convey("Then coordinates render longitude first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(row.Coordinates, convey.ShouldEqual, "POINT(-71.0589 42.3601)")
				convey.So(row.Source, convey.ShouldEqual, "google")
				convey.So(row.SourceID, convey.ShouldEqual, "ChIJtc")
			})

			convey.Convey("Then the row round-trips back to the same location", func() {
				convey.So(err, convey.ShouldBeNil)
				got, err := LocationFromRow(row)
				convey.So(err, convey.ShouldBeNil)

				convey.So(got.Name, convey.ShouldEqual, loc.Name)
				convey.So(*got.Description, convey.ShouldEqual, *loc.Description)
				convey.So(got.Coordinates.Lat, convey.ShouldAlmostEqual, loc.Coordinates.Lat, 1e-9)
				convey.So(got.Coordinates.Lng, convey.ShouldAlmostEqual, loc.Coordinates.Lng, 1e-9)
				convey.So(*got.Address, convey.ShouldEqual, *loc.Address)
				convey.So(*got.Rating, convey.ShouldAlmostEqual, *loc.Rating, 1e-9)
				convey.So(*got.TotalRatings, convey.ShouldEqual, *loc.TotalRatings)
				convey.So(got.Photos, convey.ShouldResemble, loc.Photos)
				convey.So(*got.Website, convey.ShouldEqual, *loc.Website)
				convey.So(*got.Phone, convey.ShouldEqual, *loc.Phone)
				convey.So(got.Hours, convey.ShouldResemble, loc.Hours)
				convey.So(*got.PriceLevel, convey.ShouldEqual, *loc.PriceLevel)
				convey.So(got.Types, convey.ShouldResemble, loc.Types)
				convey.So(got.Source, convey.ShouldEqual, loc.Source)
				convey.So(got.SourceID, convey.ShouldEqual, loc.SourceID)
				convey.So(got.LastUpdated.Equal(loc.LastUpdated), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When optional fields are absent", func() {
			loc.Description = nil
			loc.Rating = nil
			loc.TotalRatings = nil
			loc.PriceLevel = nil
			loc.Hours = nil

			row, err := LocationToRow(loc)
			convey.So(err, convey.ShouldBeNil)
			convey.So(row.Rating, convey.ShouldBeNil)
			convey.So(row.Hours, convey.ShouldBeNil)

			got, err := LocationFromRow(row)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Description, convey.ShouldBeNil)
			convey.So(got.Rating, convey.ShouldBeNil)
			convey.So(got.Hours, convey.ShouldBeEmpty)
		})

		convey.Convey("When the entity is invalid the conversion fails", func() {
			loc.Name = ""
			_, err := LocationToRow(loc)
			convey.So(err, convey.ShouldWrap, ErrBadRow)
		})
	})
}

func TestLocationFromRowMalformed(t *testing.T) {
	convey.Convey("Given stringified ordinates from the store", t, func() {
		base := LocationRow{
			Name:        "Thinking Cup",
			Lat:         "42.3601",
			Lng:         "-71.0589",
			Source:      "google",
			SourceID:    "ChIJtc",
			LastUpdated: "2026-08-01 12:30:00+00",
		}

		convey.Convey("A well formed row parses", func() {
			got, err := LocationFromRow(base)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Coordinates.Lat, convey.ShouldAlmostEqual, 42.3601, 1e-9)
			convey.So(got.Coordinates.Lng, convey.ShouldAlmostEqual, -71.0589, 1e-9)
			convey.So(got.Photos, convey.ShouldNotBeNil)
			convey.So(got.Types, convey.ShouldNotBeNil)
		})

		convey.Convey("An unparsable latitude fails only this row", func() {
			base.Lat = "not-a-number"
			_, err := LocationFromRow(base)
			convey.So(err, convey.ShouldWrap, ErrBadRow)
		})

		convey.Convey("A bogus timestamp fails only this row", func() {
			base.LastUpdated = "yesterday"
			_, err := LocationFromRow(base)
			convey.So(err, convey.ShouldWrap, ErrBadRow)
		})

		convey.Convey("Corrupt hours JSON fails only this row", func() {
			base.Hours = []byte("{nope")
			_, err := LocationFromRow(base)
			convey.So(err, convey.ShouldWrap, ErrBadRow)
		})
	})
}

func TestEventRowMapping(t *testing.T) {
	convey.Convey("Given a fully populated event", t, func() {
		start := time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC)
		end := start.Add(3 * time.Hour)
		ev := model.Event{
			ID:           "ev-1",
			Title:        "Jazz in the Park",
			Description:  strPtr("open air concert"),
			StartTime:    start,
			EndTime:      &end,
			LocationName: "Boston Common",
			Coordinates:  model.Coordinates{Lat: 42.355, Lng: -71.0656},
			Address:      strPtr("139 Tremont St"),
			ImageURL:     strPtr("https://img.example/jazz.jpg"),
			Organizer:    strPtr("Parks Dept"),
			Category:     strPtr("music"),
			Tags:         []string{"jazz", "outdoor"},
			Source:       model.SourceEventbrite,
			ExternalID:   strPtr("eb-991"),
			URL:          strPtr("https://eventbrite.example/e/991"),
			CostType:     costPtr(model.CostFree),
			Visibility:   model.VisibilityPublic,
			CreatedAt:    start.Add(-48 * time.Hour),
			UpdatedAt:    start.Add(-time.Hour),
		}

		convey.Convey("It round-trips through its row", func() {
			row, err := EventToRow(ev)
			convey.So(err, convey.ShouldBeNil)
			convey.So(row.Latitude, convey.ShouldAlmostEqual, 42.355, 1e-9)
			convey.So(row.Longitude, convey.ShouldAlmostEqual, -71.0656, 1e-9)

			got, err := EventFromRow(row)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Title, convey.ShouldEqual, ev.Title)
			convey.So(got.StartTime.Equal(ev.StartTime), convey.ShouldBeTrue)
			convey.So(got.EndTime.Equal(*ev.EndTime), convey.ShouldBeTrue)
			convey.So(*got.ExternalID, convey.ShouldEqual, *ev.ExternalID)
			convey.So(*got.CostType, convey.ShouldEqual, *ev.CostType)
			convey.So(got.Visibility, convey.ShouldEqual, ev.Visibility)
			convey.So(got.Tags, convey.ShouldResemble, ev.Tags)
		})

		convey.Convey("An unparsable start time fails the row", func() {
			row, err := EventToRow(ev)
			convey.So(err, convey.ShouldBeNil)
			row.StartTime = "whenever"
			_, err = EventFromRow(row)
			convey.So(err, convey.ShouldWrap, ErrBadRow)
		})
	})
}
