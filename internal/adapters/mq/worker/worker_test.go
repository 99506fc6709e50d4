package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/pedra/atlas/internal/adapters/mq/queue"
	"github.com/pedra/atlas/internal/adapters/repository"
)

type recordingStore struct {
	mu        sync.Mutex
	locations [][]repository.LocationRow
	events    [][]repository.EventRow
	failWith  error
}

func (s *recordingStore) UpsertLocations(ctx context.Context, rows []repository.LocationRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil && len(rows) > 0 && rows[0].Name == "doomed" {
		return s.failWith
	}
	s.locations = append(s.locations, rows)
	return nil
}

func (s *recordingStore) UpsertEvents(ctx context.Context, rows []repository.EventRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.events = append(s.events, rows)
	return nil
}

func (s *recordingStore) locationBatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locations)
}

func (s *recordingStore) eventBatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestWorkerDrainsJobs(t *testing.T) {
	convey.Convey("Given a worker on a live queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		store := &recordingStore{}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := NewInMemoryWorker(q, store, WithName("test-worker"))
		go w.Run(ctx)

		convey.Convey("Location jobs reach the store", func() {
			ok := q.Enqueue(ctx, queue.Job{
				Locations: []repository.LocationRow{{Name: "Thinking Cup", Source: "google", SourceID: "ChIJtc"}},
			})
			convey.So(ok, convey.ShouldBeTrue)

			waitFor(t, func() bool { return store.locationBatches() == 1 })
			convey.So(store.locations[0][0].Name, convey.ShouldEqual, "Thinking Cup")
		})

		convey.Convey("Event jobs reach the store", func() {
			ok := q.Enqueue(ctx, queue.Job{
				Events: []repository.EventRow{{Title: "Jazz in the Park"}},
			})
			convey.So(ok, convey.ShouldBeTrue)

			waitFor(t, func() bool { return store.eventBatches() == 1 })
		})

		convey.Convey("A store failure is swallowed and the worker keeps going", func() {
			store.mu.Lock()
			store.failWith = errors.New("connection refused")
			store.mu.Unlock()

			q.Enqueue(ctx, queue.Job{Locations: []repository.LocationRow{{Name: "doomed"}}})
			q.Enqueue(ctx, queue.Job{Locations: []repository.LocationRow{{Name: "survivor"}}})

			waitFor(t, func() bool { return store.locationBatches() == 1 })
			convey.So(store.locations[0][0].Name, convey.ShouldEqual, "survivor")
		})

		convey.Convey("Shutdown returns once the loop exits", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestPoolLifecycle(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		store := &recordingStore{}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := NewPool(4, q, store)
		p.Start(ctx)

		convey.Convey("All enqueued jobs are eventually drained", func() {
			for i := 0; i < 20; i++ {
				q.Enqueue(ctx, queue.Job{
					Locations: []repository.LocationRow{{Name: "loc"}},
				})
			}
			waitFor(t, func() bool { return store.locationBatches() == 20 })
		})

		convey.Convey("Shutdown stops every worker", func() {
			convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}
