package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/sailwind/internal/adapters/mq/queue"
	worker "github.com/okian/sailwind/internal/adapters/mq/worker"
	model "github.com/okian/sailwind/internal/domain/model"
)

type collector struct {
	mu  sync.Mutex
	out []model.IngestOutcome
}

func (c *collector) Deliver(_ context.Context, o model.IngestOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, o)
}

func (c *collector) snapshot() []model.IngestOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.IngestOutcome(nil), c.out...)
}

var errBroken = errors.New("broken file")

func echo(_ context.Context, j worker.Job) model.IngestOutcome {
	if j.Source.Name == "broken.csv" {
		return model.IngestOutcome{Err: errBroken}
	}
	return model.IngestOutcome{Track: model.VesselTrack{VesselID: j.Source.Name}}
}

func filledQueue(names ...string) *queue.InMemoryQueue {
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(names) + 1))
	for i, n := range names {
		_ = q.Enqueue(context.Background(), worker.Job{Index: i, Source: model.TrackSource{Name: n}})
	}
	return q
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue of jobs", t, func() {
		q := filledQueue("a.csv", "broken.csv", "c.csv")
		sink := &collector{}
		w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(echo), sink, worker.WithName("test-worker"))

		convey.Convey("When the queue is closed and drained", func() {
			_ = q.Close()
			w.Run(context.Background())

			convey.Convey("Then every job is delivered with its job attached", func() {
				out := sink.snapshot()
				convey.So(len(out), convey.ShouldEqual, 3)
				convey.So(out[0].Job.Index, convey.ShouldEqual, 0)
				convey.So(out[1].Err, convey.ShouldEqual, errBroken)
				convey.So(out[2].Track.VesselID, convey.ShouldEqual, "c.csv")
			})
		})

		convey.Convey("When shutting down an idle worker", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			empty := queue.NewInMemoryQueue()
			idle := worker.NewInMemoryWorker(empty, worker.ProcessorFunc(echo), sink)
			go idle.Run(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.So(idle.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(idle.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			empty := queue.NewInMemoryQueue()
			idle := worker.NewInMemoryWorker(empty, worker.ProcessorFunc(echo), sink)
			go idle.Run(ctx)
			cancel()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-idle.Done():
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over a closed queue", t, func() {
		var names []string
		for i := 0; i < 40; i++ {
			names = append(names, fmt.Sprintf("boat%02d.csv", i))
		}
		q := filledQueue(names...)
		_ = q.Close()
		sink := &collector{}
		pool := worker.NewPool(4, q, worker.ProcessorFunc(echo), sink)

		convey.Convey("When started and awaited", func() {
			pool.Start(context.Background())
			pool.Wait()

			convey.Convey("Then each job is processed exactly once", func() {
				out := sink.snapshot()
				convey.So(len(out), convey.ShouldEqual, 40)
				idx := make([]int, 0, len(out))
				for _, o := range out {
					idx = append(idx, o.Job.Index)
				}
				sort.Ints(idx)
				for i, v := range idx {
					convey.So(v, convey.ShouldEqual, i)
				}
			})
		})

		convey.Convey("Then the worker count defaults to the CPU count", func() {
			convey.So(worker.NewPool(0, q, worker.ProcessorFunc(echo), sink).Size(), convey.ShouldBeGreaterThan, 0)
		})
	})

	convey.Convey("Given a running pool over an open queue", t, func() {
		q := queue.NewInMemoryQueue()
		sink := &collector{}
		pool := worker.NewPool(2, q, worker.ProcessorFunc(echo), sink)
		pool.Start(context.Background())
		_ = q.Enqueue(context.Background(), worker.Job{Index: 0, Source: model.TrackSource{Name: "late.csv"}})

		convey.Convey("Then Shutdown closes the queue and returns", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})
	})
}
