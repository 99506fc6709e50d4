package model_test

import (
	"testing"
	"time"

	model "github.com/pedra/atlas/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestLocationValidate(t *testing.T) {
	convey.Convey("Given a fully populated location", t, func() {
		desc := "coffee shop"
		loc := model.Location{
			ID:          "google_abc123",
			Name:        "Thinking Cup",
			Description: &desc,
			Coordinates: model.Coordinates{Lat: 42.3601, Lng: -71.0589},
			Source:      model.SourceGoogle,
			SourceID:    "abc123",
			LastUpdated: time.Now(),
		}

		convey.Convey("Then validation should pass", func() {
			convey.So(loc.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then its conflict key combines source and source id", func() {
			convey.So(loc.ConflictKey(), convey.ShouldEqual, "google_abc123")
		})

		convey.Convey("When the name is missing", func() {
			loc.Name = ""
			convey.So(loc.Validate(), convey.ShouldWrap, model.ErrInvalidEntity)
		})

		convey.Convey("When the source is unknown", func() {
			loc.Source = "foursquare"
			convey.So(loc.Validate(), convey.ShouldWrap, model.ErrInvalidEntity)
		})

		convey.Convey("When the latitude is out of WGS84 range", func() {
			loc.Coordinates.Lat = 91
			convey.So(loc.Validate(), convey.ShouldWrap, model.ErrInvalidCoordinates)
		})

		convey.Convey("When the longitude is out of WGS84 range", func() {
			loc.Coordinates.Lng = -181
			convey.So(loc.Validate(), convey.ShouldWrap, model.ErrInvalidCoordinates)
		})
	})
}

func TestEventValidate(t *testing.T) {
	convey.Convey("Given a provider event", t, func() {
		extID := "evt-1"
		ev := model.Event{
			ID:           "eventbrite_evt-1",
			Title:        "Jazz Night",
			StartTime:    time.Now().Add(24 * time.Hour),
			LocationName: "The Basement",
			Coordinates:  model.Coordinates{Lat: 42.35, Lng: -71.06},
			Source:       model.SourceEventbrite,
			ExternalID:   &extID,
			Visibility:   model.VisibilityPublic,
		}

		convey.Convey("Then validation should pass", func() {
			convey.So(ev.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then its conflict key combines source and external id", func() {
			convey.So(ev.ConflictKey(), convey.ShouldEqual, "eventbrite_evt-1")
		})

		convey.Convey("When the title is missing", func() {
			ev.Title = ""
			convey.So(ev.Validate(), convey.ShouldWrap, model.ErrInvalidEntity)
		})

		convey.Convey("When the start time is missing", func() {
			ev.StartTime = time.Time{}
			convey.So(ev.Validate(), convey.ShouldWrap, model.ErrInvalidEntity)
		})
	})

	convey.Convey("Given a user-created event", t, func() {
		ev := model.Event{
			Title:       "Picnic",
			StartTime:   time.Now(),
			Coordinates: model.Coordinates{Lat: 1, Lng: 2},
			Source:      model.SourceUser,
			Visibility:  model.VisibilityPrivate,
		}

		convey.Convey("Then it has no conflict key", func() {
			convey.So(ev.ConflictKey(), convey.ShouldEqual, "")
		})

		convey.Convey("Then validation should pass", func() {
			convey.So(ev.Validate(), convey.ShouldBeNil)
		})
	})
}
