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

// SearchEvents answers an event radius search cache-first. Cached
// rows only count if they were refreshed inside the configured cache
// window; stale rows are excluded by the store query itself.
func (s *Service) SearchEvents(ctx context.Context, req types.EventSearch) ([]model.Event, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := (model.Coordinates{Lat: req.Lat, Lng: req.Lng}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	radius := req.Radius
	if radius <= 0 {
		radius = s.eventRadius
	}

	cached, cacheErr := s.cachedEvents(ctx, req.Lat, req.Lng, radius)
	if len(cached) > 0 {
		metrics.RecordCacheHit("event")
		return filterEventWindow(cached, req.Start, req.End), nil
	}
	metrics.RecordCacheMiss("event")

	fetched, err := s.eventsAPI.SearchEvents(ctx, req.Lat, req.Lng, radius, req.Start, req.End)
	if err != nil {
		s.logger.Error(ctx, "event search failed on both sides",
			logger.Float64("lat", req.Lat),
			logger.Float64("lng", req.Lng),
			logger.Error(err))
		if cacheErr != nil {
			return nil, fmt.Errorf("%w: cache: %w; provider: %w", ErrAggregation, cacheErr, err)
		}
		return nil, fmt.Errorf("%w: provider: %w", ErrAggregation, err)
	}

	s.writeBackEvents(ctx, fetched)
	return fetched, nil
}

// UserEvents lists a user's own events, oldest start first.
func (s *Service) UserEvents(ctx context.Context, ownerID string) ([]model.Event, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrValidation)
	}

	rows, err := s.events.EventsByOwner(ctx, ownerID)
	if err != nil {
		metrics.RecordCacheError("event")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	out := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := repository.EventFromRow(row)
		if err != nil {
			metrics.RecordRowDropped("event", "fromrow")
			s.logger.Warn(ctx, "skipping malformed event row",
				logger.String("id", row.ID),
				logger.Error(err))
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// CreateEvent validates and synchronously persists a user-created
// event. Unlike provider write-backs this write is part of the
// request; a store failure is the caller's failure.
func (s *Service) CreateEvent(ctx context.Context, req types.NewEvent) (model.Event, error) {
	if err := s.ready(); err != nil {
		return model.Event{}, err
	}
	if err := s.validate.Struct(req); err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var costType *model.CostType
	if req.CostType != nil {
		ct := model.CostType(*req.CostType)
		costType = &ct
	}

	now := time.Now().UTC()
	ev := model.Event{
		Title:        req.Title,
		Description:  req.Description,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		LocationName: req.LocationName,
		Coordinates:  model.Coordinates{Lat: req.Lat, Lng: req.Lng},
		Address:      req.Address,
		ImageURL:     req.ImageURL,
		Category:     req.Category,
		Tags:         req.Tags,
		Source:       model.SourceUser,
		CostType:     costType,
		CostAmount:   req.CostAmount,
		Visibility:   model.Visibility(req.Visibility),
		OwnerID:      req.OwnerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	row, err := repository.EventToRow(ev)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	stored, err := s.events.InsertEvent(ctx, row)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	created, err := repository.EventFromRow(stored)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.RecordUserEventCreated()
	s.logger.Info(ctx, "user event created",
		logger.String("id", created.ID),
		logger.String("title", created.Title))
	return created, nil
}

func (s *Service) cachedEvents(ctx context.Context, lat, lng, radius float64) ([]model.Event, error) {
	start := time.Now()
	rows, err := s.events.QueryNearbyEvents(ctx, lat, lng, radius, s.eventsCacheWindow)
	metrics.RecordCacheQueryDuration("event", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordCacheError("event")
		s.logger.Warn(ctx, "event cache query failed, falling through to provider",
			logger.Error(err))
		return nil, err
	}

	out := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := repository.EventFromRow(row)
		if err != nil {
			metrics.RecordRowDropped("event", "fromrow")
			s.logger.Warn(ctx, "skipping malformed event row",
				logger.String("id", row.ID),
				logger.Error(err))
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Service) writeBackEvents(ctx context.Context, events []model.Event) {
	if len(events) == 0 {
		return
	}

	rows := make([]repository.EventRow, 0, len(events))
	suppressed := 0
	for _, ev := range events {
		key := ev.ConflictKey()
		if key == "" {
			// No stable identity to upsert on.
			continue
		}
		if s.deduper.SeenAndRecord(ctx, key) {
			suppressed++
			continue
		}
		row, err := repository.EventToRow(ev)
		if err != nil {
			metrics.RecordRowDropped("event", "torow")
			s.deduper.Unrecord(ctx, key)
			s.logger.Warn(ctx, "skipping unconvertible event",
				logger.String("key", key),
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

	if !s.writeQueue.Enqueue(s.rootCtx, queue.Job{Events: rows}) {
		for _, row := range rows {
			if row.ExternalID != nil {
				s.deduper.Unrecord(ctx, row.Source+"_"+*row.ExternalID)
			}
		}
		s.logger.Warn(ctx, "write-back dropped",
			logger.Int("rows", len(rows)))
	}
}

// filterEventWindow keeps cached events that start inside the
// requested window. The store filter is freshness, not date range, so
// the range check lands here.
func filterEventWindow(events []model.Event, start, end *time.Time) []model.Event {
	if start == nil && end == nil {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if start != nil && ev.StartTime.Before(*start) {
			continue
		}
		if end != nil && ev.StartTime.After(*end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
