// Package service provides the aggregation core that implements the
// dependencies required by the HTTP API. It arbitrates between the
// geospatial cache and the external providers: cache answers win
// outright, provider answers are returned immediately and written
// back asynchronously.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pedra/atlas/internal/adapters/mq/queue"
	workerpool "github.com/pedra/atlas/internal/adapters/mq/worker"
	"github.com/pedra/atlas/internal/adapters/repository"
	"github.com/pedra/atlas/internal/domain/dedupe"
	"github.com/pedra/atlas/internal/domain/model"
	"github.com/pedra/atlas/pkg/logger"
)

// Default service configuration constants.
const (
	defaultQueueSize         = 10000
	defaultWorkerCount       = 4
	defaultDedupeSize        = 50000
	defaultNearbyRadius      = 1000.0
	defaultTextRadius        = 5000.0
	defaultEventRadius       = 10000.0
	defaultEventsCacheWindow = 24 * time.Hour
	defaultMaxPhotoWidth     = 800
)

// PlacesProvider is the outbound contract for place search.
type PlacesProvider interface {
	SearchNearby(ctx context.Context, lat, lng, radiusMeters float64, keyword, placeType string) ([]model.Location, error)
	SearchText(ctx context.Context, query string, lat, lng *float64, radiusMeters float64) ([]model.Location, error)
	Photo(ctx context.Context, photoReference string, maxWidth int) ([]byte, string, error)
}

// EventsProvider is the outbound contract for event search.
type EventsProvider interface {
	SearchEvents(ctx context.Context, lat, lng, radiusMeters float64, start, end *time.Time) ([]model.Event, error)
}

// Service implements the API dependencies for the explorer.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	locations repository.LocationStore
	events    repository.EventStore
	places    PlacesProvider
	eventsAPI EventsProvider

	// Write-back machinery
	deduper    dedupe.Deduper
	writeQueue queue.Queue
	workerPool *workerpool.Pool

	// Configuration
	queueSize         int
	workerCount       int
	dedupeSize        int
	nearbyRadius      float64
	textRadius        float64
	eventRadius       float64
	eventsCacheWindow time.Duration
	maxPhotoWidth     int

	validate *validator.Validate

	// rootCtx outlives any single request so write-backs survive
	// caller cancellation.
	rootCtx context.Context

	started bool

	logger logger.Logger
}

// New constructs a Service with default configuration. The store and
// providers are injected through options; Start fails without them.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:         defaultQueueSize,
		workerCount:       defaultWorkerCount,
		dedupeSize:        defaultDedupeSize,
		nearbyRadius:      defaultNearbyRadius,
		textRadius:        defaultTextRadius,
		eventRadius:       defaultEventRadius,
		eventsCacheWindow: defaultEventsCacheWindow,
		maxPhotoWidth:     defaultMaxPhotoWidth,
		validate:          validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires the write-back queue and worker pool. ctx is the
// process root context: workers run on it, not on request contexts.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.locations == nil && s.events == nil {
		return ErrMissingStore
	}

	s.rootCtx = ctx
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	s.writeQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.writeQueue, storeUpserter{
		locations: s.locations,
		events:    s.events,
	})
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "aggregation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the write-back path and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping aggregation service...")

	if s.writeQueue != nil {
		_ = s.writeQueue.Close()
	}
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "aggregation service stopped")
}

// ready reports whether Start has run. Entry points call it before
// touching collaborators so an unstarted service fails cleanly
// instead of hitting a nil queue.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// QueueLen exposes the current write-back backlog for the stats
// endpoint.
func (s *Service) QueueLen(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.writeQueue == nil {
		return 0
	}
	return s.writeQueue.Len(ctx)
}

// storeUpserter narrows the two store interfaces to what the workers
// need.
type storeUpserter struct {
	locations repository.LocationStore
	events    repository.EventStore
}

func (u storeUpserter) UpsertLocations(ctx context.Context, rows []repository.LocationRow) error {
	if u.locations == nil {
		return ErrMissingStore
	}
	return u.locations.UpsertLocations(ctx, rows)
}

func (u storeUpserter) UpsertEvents(ctx context.Context, rows []repository.EventRow) error {
	if u.events == nil {
		return ErrMissingStore
	}
	return u.events.UpsertEvents(ctx, rows)
}
