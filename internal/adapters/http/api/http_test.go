package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/pedra/atlas/internal/app"
	"github.com/pedra/atlas/internal/domain/model"
	"github.com/pedra/atlas/internal/domain/types"
)

type fakeDeps struct {
	nearbyReq   *types.NearbySearch
	textReq     *types.TextSearch
	eventReq    *types.EventSearch
	newEventReq *types.NewEvent
	ownerID     string
	locations   []model.Location
	events      []model.Event
	created     model.Event
	photoBody   []byte
	photoType   string
	err         error
}

func (f *fakeDeps) SearchNearby(ctx context.Context, req types.NearbySearch) ([]model.Location, error) {
	f.nearbyReq = &req
	return f.locations, f.err
}

func (f *fakeDeps) SearchText(ctx context.Context, req types.TextSearch) ([]model.Location, error) {
	f.textReq = &req
	return f.locations, f.err
}

func (f *fakeDeps) Photo(ctx context.Context, ref string, maxWidth int) ([]byte, string, error) {
	return f.photoBody, f.photoType, f.err
}

func (f *fakeDeps) SearchEvents(ctx context.Context, req types.EventSearch) ([]model.Event, error) {
	f.eventReq = &req
	return f.events, f.err
}

func (f *fakeDeps) UserEvents(ctx context.Context, ownerID string) ([]model.Event, error) {
	f.ownerID = ownerID
	return f.events, f.err
}

func (f *fakeDeps) CreateEvent(ctx context.Context, req types.NewEvent) (model.Event, error) {
	f.newEventReq = &req
	return f.created, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type fakeStats struct{ queueLen int }

func (s fakeStats) QueueLen(ctx context.Context) int { return s.queueLen }

func newTestMux(deps *fakeDeps, pinger Pinger) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(deps, pinger, fakeStats{queueLen: 3}).Register(context.Background(), mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestNearbyEndpoint(t *testing.T) {
	convey.Convey("GET /api/places/nearby", t, func() {
		deps := &fakeDeps{locations: []model.Location{{
			Name:        "Thinking Cup",
			Coordinates: model.Coordinates{Lat: 42.3601, Lng: -71.0589},
			Source:      model.SourceGoogle,
			SourceID:    "ChIJtc",
			Photos:      []string{},
			Types:       []string{"cafe"},
		}}}
		mux := newTestMux(deps, fakePinger{})

		convey.Convey("A valid request returns the locations", func() {
			rec := doRequest(mux, http.MethodGet, "/api/places/nearby?lat=42.3601&lng=-71.0589&radius=1000&keyword=coffee", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

			var got []model.Location
			convey.So(json.Unmarshal(rec.Body.Bytes(), &got), convey.ShouldBeNil)
			convey.So(got, convey.ShouldHaveLength, 1)
			convey.So(got[0].Name, convey.ShouldEqual, "Thinking Cup")
			convey.So(deps.nearbyReq.Keyword, convey.ShouldEqual, "coffee")
			convey.So(deps.nearbyReq.Radius, convey.ShouldEqual, 1000)
		})

		convey.Convey("Missing coordinates are rejected", func() {
			rec := doRequest(mux, http.MethodGet, "/api/places/nearby?lat=42.3601", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A garbled latitude is rejected", func() {
			rec := doRequest(mux, http.MethodGet, "/api/places/nearby?lat=abc&lng=-71", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("An empty result is 200 with an empty array", func() {
			deps.locations = nil
			rec := doRequest(mux, http.MethodGet, "/api/places/nearby?lat=42.3601&lng=-71.0589", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(strings.TrimSpace(rec.Body.String()), convey.ShouldEqual, "[]")
		})

		convey.Convey("An aggregation failure is 502", func() {
			deps.err = fmt.Errorf("%w: provider down", service.ErrAggregation)
			rec := doRequest(mux, http.MethodGet, "/api/places/nearby?lat=42.3601&lng=-71.0589", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadGateway)

			var resp errorResponse
			convey.So(json.Unmarshal(rec.Body.Bytes(), &resp), convey.ShouldBeNil)
			convey.So(resp.Code, convey.ShouldEqual, "search_unavailable")
		})

		convey.Convey("A validation failure is 400", func() {
			deps.err = fmt.Errorf("%w: lat out of range", service.ErrValidation)
			rec := doRequest(mux, http.MethodGet, "/api/places/nearby?lat=95&lng=0", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSearchEndpoint(t *testing.T) {
	convey.Convey("GET /api/places/search", t, func() {
		deps := &fakeDeps{}
		mux := newTestMux(deps, fakePinger{})

		convey.Convey("An anchored query forwards the anchor", func() {
			rec := doRequest(mux, http.MethodGet, "/api/places/search?query=thinking+cup&lat=42.36&lng=-71.06", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.textReq.Query, convey.ShouldEqual, "thinking cup")
			convey.So(deps.textReq.Anchored(), convey.ShouldBeTrue)
		})

		convey.Convey("An unanchored query forwards no anchor", func() {
			rec := doRequest(mux, http.MethodGet, "/api/places/search?query=pizza", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.textReq.Anchored(), convey.ShouldBeFalse)
		})
	})
}

func TestEventsEndpoint(t *testing.T) {
	convey.Convey("The events routes", t, func() {
		owner := "user-7"
		deps := &fakeDeps{
			events: []model.Event{{
				Title:       "Jazz in the Park",
				StartTime:   time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC),
				Coordinates: model.Coordinates{Lat: 42.355, Lng: -71.0656},
				Source:      model.SourceEventbrite,
				Visibility:  model.VisibilityPublic,
			}},
			created: model.Event{
				ID:         "stored-1",
				Title:      "Board Game Night",
				Source:     model.SourceUser,
				Visibility: model.VisibilityPublic,
				OwnerID:    &owner,
			},
		}
		mux := newTestMux(deps, fakePinger{})

		convey.Convey("GET /api/events searches by point and window", func() {
			rec := doRequest(mux, http.MethodGet, "/api/events?lat=42.36&lng=-71.06&start=2026-09-12T00:00:00Z", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.eventReq.Start, convey.ShouldNotBeNil)
			convey.So(deps.eventReq.Start.Equal(time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
		})

		convey.Convey("GET /api/events with a bad date is rejected", func() {
			rec := doRequest(mux, http.MethodGet, "/api/events?lat=42.36&lng=-71.06&start=tomorrow", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("POST /api/events creates and returns 201", func() {
			body := `{"title":"Board Game Night","startTime":"2026-10-01T18:00:00Z","locationName":"Community Hall","lat":42.36,"lng":-71.06,"visibility":"public"}`
			rec := doRequest(mux, http.MethodPost, "/api/events", body)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusCreated)
			convey.So(deps.newEventReq.Title, convey.ShouldEqual, "Board Game Night")

			var got model.Event
			convey.So(json.Unmarshal(rec.Body.Bytes(), &got), convey.ShouldBeNil)
			convey.So(got.ID, convey.ShouldEqual, "stored-1")
		})

		convey.Convey("POST /api/events with broken JSON is rejected", func() {
			rec := doRequest(mux, http.MethodPost, "/api/events", "{nope")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("GET /api/events/user/{id} forwards the id", func() {
			rec := doRequest(mux, http.MethodGet, "/api/events/user/user-7", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.ownerID, convey.ShouldEqual, "user-7")
		})

		convey.Convey("GET /api/events/user/ without an id is rejected", func() {
			rec := doRequest(mux, http.MethodGet, "/api/events/user/", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestPhotoEndpoint(t *testing.T) {
	convey.Convey("GET /api/places/photo", t, func() {
		deps := &fakeDeps{photoBody: []byte("jpegbytes"), photoType: "image/jpeg"}
		mux := newTestMux(deps, fakePinger{})

		convey.Convey("A valid reference streams the image through", func() {
			rec := doRequest(mux, http.MethodGet, "/api/places/photo?ref=photoref-1&maxwidth=400", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Header().Get("Content-Type"), convey.ShouldEqual, "image/jpeg")
			convey.So(rec.Body.String(), convey.ShouldEqual, "jpegbytes")
		})

		convey.Convey("A missing reference is rejected", func() {
			rec := doRequest(mux, http.MethodGet, "/api/places/photo", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	convey.Convey("The operational endpoints", t, func() {
		deps := &fakeDeps{}

		convey.Convey("healthz reports a reachable store", func() {
			mux := newTestMux(deps, fakePinger{})
			rec := doRequest(mux, http.MethodGet, "/healthz", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"store":"ok"`)
		})

		convey.Convey("healthz stays 200 with an unreachable store", func() {
			mux := newTestMux(deps, fakePinger{err: fmt.Errorf("down")})
			rec := doRequest(mux, http.MethodGet, "/healthz", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"store":"unreachable"`)
		})

		convey.Convey("stats reports the write-back backlog", func() {
			mux := newTestMux(deps, fakePinger{})
			rec := doRequest(mux, http.MethodGet, "/stats", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"writeback_queue_len":3`)
		})
	})
}
