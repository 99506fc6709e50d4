package service

import (
	"time"

	"github.com/pedra/atlas/internal/adapters/repository"
	"github.com/pedra/atlas/internal/domain/dedupe"
	"github.com/pedra/atlas/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLocationStore injects the place cache.
func WithLocationStore(store repository.LocationStore) Option {
	return func(s *Service) {
		s.locations = store
	}
}

// WithEventStore injects the event cache.
func WithEventStore(store repository.EventStore) Option {
	return func(s *Service) {
		s.events = store
	}
}

// WithPlacesProvider injects the external place search client.
func WithPlacesProvider(p PlacesProvider) Option {
	return func(s *Service) {
		s.places = p
	}
}

// WithEventsProvider injects the external event search client.
func WithEventsProvider(p EventsProvider) Option {
	return func(s *Service) {
		s.eventsAPI = p
	}
}

// WithDeduper replaces the write-back suppression cache.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithQueueSize sets the write-back queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of write-back workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize sets the size of the suppression cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDefaultRadii sets the fallback radii in meters for nearby, text
// and event searches.
func WithDefaultRadii(nearby, text, event float64) Option {
	return func(s *Service) {
		if nearby > 0 {
			s.nearbyRadius = nearby
		}
		if text > 0 {
			s.textRadius = text
		}
		if event > 0 {
			s.eventRadius = event
		}
	}
}

// WithEventsCacheWindow sets how long cached events stay fresh.
func WithEventsCacheWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.eventsCacheWindow = d
		}
	}
}

// WithMaxPhotoWidth caps the width forwarded to the photo endpoint.
func WithMaxPhotoWidth(w int) Option {
	return func(s *Service) {
		if w > 0 {
			s.maxPhotoWidth = w
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
