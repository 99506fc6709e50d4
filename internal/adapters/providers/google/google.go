// Package google adapts the Google Places API into the canonical
// location model. The client owns rate limiting and circuit breaking;
// callers see only canonical entities and the two provider error
// kinds.
package google

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
	providerName = "google"

	defaultBaseURL   = "https://maps.googleapis.com/maps/api/place"
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 10 // requests per second
	defaultBurst     = 20

	// maxPhotoBytes caps how much of a photo response is buffered.
	maxPhotoBytes = 8 << 20
)

// Client talks to the Places API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     logger.Logger
}

// New builds a Places client. The API key is required; every other
// knob has a production default.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing api key", ErrStatus)
	}

	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:     logger.Named("google"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "google-places",
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

// SearchNearby fetches places around a point. Malformed results are
// dropped one by one, never the whole response.
func (c *Client) SearchNearby(ctx context.Context, lat, lng, radiusMeters float64, keyword, placeType string) ([]model.Location, error) {
	params := url.Values{}
	params.Set("location", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(radiusMeters, 'f', -1, 64))
	if keyword != "" {
		params.Set("keyword", keyword)
	}
	if placeType != "" {
		params.Set("type", placeType)
	}
	return c.search(ctx, "nearbysearch", params)
}

// SearchText fetches places matching a free-text query, optionally
// biased around a point.
func (c *Client) SearchText(ctx context.Context, query string, lat, lng *float64, radiusMeters float64) ([]model.Location, error) {
	params := url.Values{}
	params.Set("query", query)
	if lat != nil && lng != nil {
		params.Set("location", strconv.FormatFloat(*lat, 'f', -1, 64)+","+strconv.FormatFloat(*lng, 'f', -1, 64))
		params.Set("radius", strconv.FormatFloat(radiusMeters, 'f', -1, 64))
	}
	return c.search(ctx, "textsearch", params)
}

// Photo fetches a photo by provider reference, returning the bytes
// and the content type for passthrough serving.
func (c *Client) Photo(ctx context.Context, photoReference string, maxWidth int) ([]byte, string, error) {
	if photoReference == "" {
		return nil, "", fmt.Errorf("%w: missing photo reference", ErrStatus)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	params := url.Values{}
	params.Set("photo_reference", photoReference)
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/photo?"+params.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	start := time.Now()
	metrics.RecordProviderRequest(providerName, "photo")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderError(providerName, "transport")
		return nil, "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderDuration(providerName, "photo", time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.RecordProviderError(providerName, "status")
		return nil, "", fmt.Errorf("%w: photo status %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		metrics.RecordProviderError(providerName, "transport")
		return nil, "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) search(ctx context.Context, operation string, params url.Values) ([]model.Location, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	params.Set("key", c.apiKey)

	endpoint := c.baseURL + "/" + operation + "/json?" + params.Encode()

	start := time.Now()
	metrics.RecordProviderRequest(providerName, operation)

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %s status %d", ErrStatus, operation, resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return b, nil
	})
	if err != nil {
		metrics.RecordProviderError(providerName, errorKind(err))
		return nil, err
	}
	metrics.RecordProviderDuration(providerName, operation, time.Since(start).Seconds())

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		metrics.RecordProviderError(providerName, "decode")
		return nil, fmt.Errorf("%w: decode: %w", ErrTransport, err)
	}
	if decoded.Status != "OK" && decoded.Status != "ZERO_RESULTS" {
		metrics.RecordProviderError(providerName, "status")
		return nil, fmt.Errorf("%w: places status %s: %s", ErrStatus, decoded.Status, decoded.ErrorMessage)
	}

	locations := make([]model.Location, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		loc, err := normalize(r)
		if err != nil {
			metrics.RecordRowDropped("location", "normalize")
			c.logger.Warn(ctx, "dropping malformed place",
				logger.String("place_id", r.PlaceID),
				logger.Error(err))
			continue
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// normalize converts one raw result into the canonical Location. A
// result without a stable identity or coordinates is malformed.
func normalize(r placeResult) (model.Location, error) {
	if r.PlaceID == "" {
		return model.Location{}, fmt.Errorf("missing place_id")
	}
	if r.Name == "" {
		return model.Location{}, fmt.Errorf("missing name")
	}
	if r.Geometry == nil {
		return model.Location{}, fmt.Errorf("missing geometry")
	}

	address := r.Vicinity
	if address == nil {
		address = r.FormattedAddress
	}

	var description *string
	if r.EditorialSummary != nil && r.EditorialSummary.Overview != "" {
		description = &r.EditorialSummary.Overview
	}

	photos := make([]string, 0, len(r.Photos))
	for _, p := range r.Photos {
		if p.PhotoReference != "" {
			photos = append(photos, p.PhotoReference)
		}
	}

	var hours []model.OpeningPeriod
	if r.OpeningHours != nil {
		for _, p := range r.OpeningHours.Periods {
			if p.Open == nil {
				continue
			}
			op := model.OpeningPeriod{Open: p.Open.Time, Day: p.Open.Day}
			if p.Close != nil {
				op.Close = p.Close.Time
			}
			hours = append(hours, op)
		}
	}

	types := r.Types
	if types == nil {
		types = []string{}
	}

	loc := model.Location{
		Name:        r.Name,
		Description: description,
		Coordinates: model.Coordinates{
			Lat: r.Geometry.Location.Lat,
			Lng: r.Geometry.Location.Lng,
		},
		Address:      address,
		Rating:       r.Rating,
		TotalRatings: r.UserRatingsTotal,
		Photos:       photos,
		Website:      r.Website,
		Phone:        r.PhoneNumber,
		Hours:        hours,
		PriceLevel:   r.PriceLevel,
		Types:        types,
		Source:       model.SourceGoogle,
		SourceID:     r.PlaceID,
		LastUpdated:  time.Now().UTC(),
	}
	// Adapter-produced ids are source-qualified until the store
	// assigns its own.
	loc.ID = loc.ConflictKey()
	if err := loc.Validate(); err != nil {
		return model.Location{}, err
	}
	return loc, nil
}

func errorKind(err error) string {
	switch {
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		return "breaker"
	default:
		return "request"
	}
}
