package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pedra/atlas/internal/adapters/mq/queue"
	"github.com/pedra/atlas/internal/adapters/repository"
	"github.com/pedra/atlas/internal/domain/model"
	"github.com/pedra/atlas/internal/domain/types"
	"github.com/pedra/atlas/pkg/logger"
	"github.com/pedra/atlas/pkg/metrics"
)

// SearchNearby answers a radius search cache-first. When the cache
// holds any usable row the provider is never consulted. When it holds
// nothing, or fails, the provider result is returned directly and
// written back asynchronously.
func (s *Service) SearchNearby(ctx context.Context, req types.NearbySearch) ([]model.Location, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := (model.Coordinates{Lat: req.Lat, Lng: req.Lng}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	radius := req.Radius
	if radius <= 0 {
		radius = s.nearbyRadius
	}

	cached, cacheErr := s.cachedLocations(ctx, req.Lat, req.Lng, radius, req.Keyword)
	if len(cached) > 0 {
		metrics.RecordCacheHit("location")
		return cached, nil
	}
	metrics.RecordCacheMiss("location")

	fetched, err := s.places.SearchNearby(ctx, req.Lat, req.Lng, radius, req.Keyword, req.Type)
	if err != nil {
		// Neither side produced anything; this is an outage, not an
		// empty neighborhood.
		s.logger.Error(ctx, "nearby search failed on both sides",
			logger.Float64("lat", req.Lat),
			logger.Float64("lng", req.Lng),
			logger.Error(err))
		if cacheErr != nil {
			return nil, fmt.Errorf("%w: cache: %w; provider: %w", ErrAggregation, cacheErr, err)
		}
		return nil, fmt.Errorf("%w: provider: %w", ErrAggregation, err)
	}

	s.writeBackLocations(ctx, fetched)
	return fetched, nil
}

// SearchText answers a free-text search. Only anchored queries touch
// the cache; without a point there is no radius to query by.
func (s *Service) SearchText(ctx context.Context, req types.TextSearch) ([]model.Location, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if req.Query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrValidation)
	}
	radius := req.Radius
	if radius <= 0 {
		radius = s.textRadius
	}

	var cacheErr error
	if req.Anchored() {
		var cached []model.Location
		cached, cacheErr = s.cachedLocations(ctx, *req.Lat, *req.Lng, radius, req.Query)
		if len(cached) > 0 {
			metrics.RecordCacheHit("location")
			return cached, nil
		}
		metrics.RecordCacheMiss("location")
	}

	fetched, err := s.places.SearchText(ctx, req.Query, req.Lat, req.Lng, radius)
	if err != nil {
		s.logger.Error(ctx, "text search failed",
			logger.String("query", req.Query),
			logger.Error(err))
		if cacheErr != nil {
			return nil, fmt.Errorf("%w: cache: %w; provider: %w", ErrAggregation, cacheErr, err)
		}
		return nil, fmt.Errorf("%w: provider: %w", ErrAggregation, err)
	}

	// Anchorless results have no radius a later nearby query could
	// find them under, so they are not worth caching.
	if req.Anchored() {
		s.writeBackLocations(ctx, fetched)
	}
	return fetched, nil
}

// Photo proxies a provider photo fetch.
func (s *Service) Photo(ctx context.Context, photoReference string, maxWidth int) ([]byte, string, error) {
	if err := s.ready(); err != nil {
		return nil, "", err
	}
	if photoReference == "" {
		return nil, "", fmt.Errorf("%w: missing photo reference", ErrValidation)
	}
	if maxWidth <= 0 || maxWidth > s.maxPhotoWidth {
		maxWidth = s.maxPhotoWidth
	}
	body, contentType, err := s.places.Photo(ctx, photoReference, maxWidth)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrAggregation, err)
	}
	return body, contentType, nil
}

// cachedLocations queries the cache and maps rows back to entities.
// A malformed row is skipped and logged; it never sinks the result.
func (s *Service) cachedLocations(ctx context.Context, lat, lng, radius float64, keyword string) ([]model.Location, error) {
	start := time.Now()
	rows, err := s.locations.QueryNearby(ctx, lat, lng, radius, keyword)
	metrics.RecordCacheQueryDuration("location", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordCacheError("location")
		s.logger.Warn(ctx, "location cache query failed, falling through to provider",
			logger.Error(err))
		return nil, err
	}

	out := make([]model.Location, 0, len(rows))
	for _, row := range rows {
		loc, err := repository.LocationFromRow(row)
		if err != nil {
			metrics.RecordRowDropped("location", "fromrow")
			s.logger.Warn(ctx, "skipping malformed cache row",
				logger.String("id", row.ID),
				logger.Error(err))
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

// writeBackLocations converts provider results to rows and enqueues
// them on the root context. The caller's context may already be dead
// by the time workers run; that must not stop the write.
func (s *Service) writeBackLocations(ctx context.Context, locations []model.Location) {
	if len(locations) == 0 {
		return
	}

	rows := make([]repository.LocationRow, 0, len(locations))
	suppressed := 0
	for _, loc := range locations {
		if s.deduper.SeenAndRecord(ctx, loc.ConflictKey()) {
			suppressed++
			continue
		}
		row, err := repository.LocationToRow(loc)
		if err != nil {
			metrics.RecordRowDropped("location", "torow")
			s.deduper.Unrecord(ctx, loc.ConflictKey())
			s.logger.Warn(ctx, "skipping unconvertible location",
				logger.String("key", loc.ConflictKey()),
				logger.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	if suppressed > 0 {
		metrics.RecordWritebackSuppressed(suppressed)
	}
	if len(rows) == 0 {
		return
	}

	if !s.writeQueue.Enqueue(s.rootCtx, queue.Job{Locations: rows}) {
		// Queue full or closed. The search already has its answer.
		for _, row := range rows {
			s.deduper.Unrecord(ctx, row.Source+"_"+row.SourceID)
		}
		s.logger.Warn(ctx, "write-back dropped",
			logger.Int("rows", len(rows)))
	}
}
