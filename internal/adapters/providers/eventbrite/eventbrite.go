// Package eventbrite adapts the Eventbrite search API into the
// canonical event model.
package eventbrite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/pedra/atlas/internal/domain/model"
	"github.com/pedra/atlas/pkg/logger"
	"github.com/pedra/atlas/pkg/metrics"
)

const (
	providerName = "eventbrite"

	defaultBaseURL   = "https://www.eventbriteapi.com/v3"
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 5 // requests per second
	defaultBurst     = 10
)

// Client talks to the Eventbrite API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     logger.Logger
}

// New builds an Eventbrite client. The OAuth token is required.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrStatus)
	}

	c := &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:     logger.Named("eventbrite"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "eventbrite-search",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "circuit state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return c, nil
}

// SearchEvents fetches events around a point inside the optional time
// window. Events missing a usable identity, start time, or venue
// coordinates are dropped one by one.
func (c *Client) SearchEvents(ctx context.Context, lat, lng, radiusMeters float64, start, end *time.Time) ([]model.Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	params := url.Values{}
	params.Set("location.latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("location.longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("location.within", withinParam(radiusMeters))
	params.Set("expand", "venue,organizer,category")
	if start != nil {
		params.Set("start_date.range_start", start.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if end != nil {
		params.Set("start_date.range_end", end.UTC().Format("2006-01-02T15:04:05Z"))
	}

	endpoint := c.baseURL + "/events/search/?" + params.Encode()

	reqStart := time.Now()
	metrics.RecordProviderRequest(providerName, "search")

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: search status %d", ErrStatus, resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return b, nil
	})
	if err != nil {
		metrics.RecordProviderError(providerName, "request")
		return nil, err
	}
	metrics.RecordProviderDuration(providerName, "search", time.Since(reqStart).Seconds())

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		metrics.RecordProviderError(providerName, "decode")
		return nil, fmt.Errorf("%w: decode: %w", ErrTransport, err)
	}

	events := make([]model.Event, 0, len(decoded.Events))
	for _, raw := range decoded.Events {
		ev, err := normalize(raw)
		if err != nil {
			metrics.RecordRowDropped("event", "normalize")
			c.logger.Warn(ctx, "dropping malformed event",
				logger.String("event_id", raw.ID),
				logger.Error(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// normalize converts a raw event into the canonical Event. A venue
// with no coordinates cannot be placed on the map, so such events are
// malformed here even though the API considers them valid.
func normalize(raw rawEvent) (model.Event, error) {
	if raw.ID == "" {
		return model.Event{}, fmt.Errorf("missing id")
	}
	if raw.Name == nil || raw.Name.Text == "" {
		return model.Event{}, fmt.Errorf("missing name")
	}
	if raw.Start == nil || raw.Start.UTC == "" {
		return model.Event{}, fmt.Errorf("missing start time")
	}
	startTime, err := time.Parse(time.RFC3339, raw.Start.UTC)
	if err != nil {
		return model.Event{}, fmt.Errorf("unparsable start time %q", raw.Start.UTC)
	}

	if raw.Venue == nil || raw.Venue.Latitude == nil || raw.Venue.Longitude == nil {
		return model.Event{}, fmt.Errorf("venue has no coordinates")
	}
	venueLat, err := strconv.ParseFloat(*raw.Venue.Latitude, 64)
	if err != nil {
		return model.Event{}, fmt.Errorf("unparsable venue latitude %q", *raw.Venue.Latitude)
	}
	venueLng, err := strconv.ParseFloat(*raw.Venue.Longitude, 64)
	if err != nil {
		return model.Event{}, fmt.Errorf("unparsable venue longitude %q", *raw.Venue.Longitude)
	}

	var endTime *time.Time
	if raw.End != nil && raw.End.UTC != "" {
		if t, err := time.Parse(time.RFC3339, raw.End.UTC); err == nil {
			endTime = &t
		}
	}

	var description *string
	if raw.Description != nil && raw.Description.Text != "" {
		description = &raw.Description.Text
	}

	var locationName string
	if raw.Venue.Name != nil {
		locationName = *raw.Venue.Name
	}
	var addr *string
	if raw.Venue.Address != nil && raw.Venue.Address.Display != "" {
		addr = &raw.Venue.Address.Display
	}

	var imageURL *string
	if raw.Logo != nil && raw.Logo.URL != "" {
		imageURL = &raw.Logo.URL
	}
	var organizerName *string
	if raw.Organizer != nil && raw.Organizer.Name != "" {
		organizerName = &raw.Organizer.Name
	}
	var categoryName *string
	if raw.Category != nil && raw.Category.Name != "" {
		categoryName = &raw.Category.Name
	}

	var costType *model.CostType
	if raw.IsFree != nil {
		ct := model.CostPaid
		if *raw.IsFree {
			ct = model.CostFree
		}
		costType = &ct
	}

	externalID := raw.ID
	now := time.Now().UTC()
	ev := model.Event{
		Title:        raw.Name.Text,
		Description:  description,
		StartTime:    startTime,
		EndTime:      endTime,
		LocationName: locationName,
		Coordinates:  model.Coordinates{Lat: venueLat, Lng: venueLng},
		Address:      addr,
		ImageURL:     imageURL,
		Organizer:    organizerName,
		Category:     categoryName,
		Source:       model.SourceEventbrite,
		ExternalID:   &externalID,
		URL:          raw.URL,
		CostType:     costType,
		Visibility:   model.VisibilityPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// Adapter-produced ids are source-qualified until the store
	// assigns its own.
	ev.ID = ev.ConflictKey()
	if err := ev.Validate(); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// withinParam renders a radius in meters as the "within" distance the
// API expects, rounding up to a whole kilometer.
func withinParam(radiusMeters float64) string {
	km := int(radiusMeters / 1000)
	if float64(km*1000) < radiusMeters {
		km++
	}
	if km < 1 {
		km = 1
	}
	return strconv.Itoa(km) + "km"
}
