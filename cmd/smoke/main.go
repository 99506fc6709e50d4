// Command smoke exercises a running instance end to end: it checks
// health, runs a nearby search twice (cold then warm) and verifies
// every result actually falls inside the requested radius.
//
// schema.sql in this directory holds the reference DDL for standing
// up a local Postgres to run against.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pedra/atlas/internal/domain/geo"
	"github.com/pedra/atlas/internal/domain/model"
)

// Default configuration constants.
const (
	defaultTimeout = 10 * time.Second
	defaultRadius  = 1000.0
	defaultLat     = 42.3601
	defaultLng     = -71.0589
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		lat     = flag.Float64("lat", defaultLat, "Search latitude")
		lng     = flag.Float64("lng", defaultLng, "Search longitude")
		radius  = flag.Float64("radius", defaultRadius, "Search radius in meters")
		keyword = flag.String("keyword", "", "Optional search keyword")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := &http.Client{Timeout: *timeout}

	if err := checkHealth(ctx, client, *baseURL); err != nil {
		fail("health check: %v", err)
	}
	fmt.Println("health: ok")

	// Cold pass very likely hits the provider; warm pass should be
	// answered by the cache the first pass populated.
	for _, pass := range []string{"cold", "warm"} {
		start := time.Now()
		locations, err := nearby(ctx, client, *baseURL, *lat, *lng, *radius, *keyword)
		if err != nil {
			fail("nearby search (%s): %v", pass, err)
		}
		elapsed := time.Since(start)

		outside := 0
		for _, loc := range locations {
			d := geo.Distance(
				model.Coordinates{Lat: *lat, Lng: *lng},
				loc.Coordinates,
			)
			if d > *radius*1.1 {
				outside++
				fmt.Printf("  OUT OF RADIUS: %s at %.0fm\n", loc.Name, d)
			}
		}
		fmt.Printf("nearby (%s): %d results in %s, %d outside radius\n",
			pass, len(locations), elapsed.Round(time.Millisecond), outside)
		if outside > 0 {
			fail("%d results fell outside the requested radius", outside)
		}

		if pass == "cold" {
			// Give the write-back a moment to land.
			time.Sleep(2 * time.Second)
		}
	}

	events, err := nearbyEvents(ctx, client, *baseURL, *lat, *lng, *radius*10)
	if err != nil {
		fail("event search: %v", err)
	}
	fmt.Printf("events: %d results\n", len(events))

	if err := roundTripUserEvent(ctx, client, *baseURL, *lat, *lng); err != nil {
		fail("user event round trip: %v", err)
	}
	fmt.Println("user event: created and listed back")

	fmt.Println("smoke passed")
}

// roundTripUserEvent creates a throwaway event for a random owner and
// verifies it comes back on the owner's listing.
func roundTripUserEvent(ctx context.Context, client *http.Client, baseURL string, lat, lng float64) error {
	ownerID := "smoke-" + uuid.NewString()
	payload := map[string]any{
		"title":        "smoke test event",
		"startTime":    time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"locationName": "smoke venue",
		"lat":          lat,
		"lng":          lng,
		"visibility":   "private",
		"ownerId":      ownerID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/events", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create status %d", resp.StatusCode)
	}

	var listed []model.Event
	if err := getJSON(ctx, client, baseURL+"/api/events/user/"+ownerID, &listed); err != nil {
		return err
	}
	if len(listed) != 1 {
		return fmt.Errorf("expected 1 event for %s, got %d", ownerID, len(listed))
	}
	return nil
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func nearby(ctx context.Context, client *http.Client, baseURL string, lat, lng, radius float64, keyword string) ([]model.Location, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
	if keyword != "" {
		params.Set("keyword", keyword)
	}

	var out []model.Location
	if err := getJSON(ctx, client, baseURL+"/api/places/nearby?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nearbyEvents(ctx context.Context, client *http.Client, baseURL string, lat, lng, radius float64) ([]model.Event, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))

	var out []model.Event
	if err := getJSON(ctx, client, baseURL+"/api/events?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "smoke failed: "+format+"\n", args...)
	os.Exit(1)
}
