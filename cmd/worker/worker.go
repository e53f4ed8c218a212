package worker

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"example.com/twitterfeed/internal/archive"
	appkafka "example.com/twitterfeed/internal/broker"
	"example.com/twitterfeed/internal/logger"
	"example.com/twitterfeed/internal/metrics"
	"github.com/segmentio/kafka-go"
)

var logg = logger.New()

// Worker consumes tweet events from Kafka and archives them in Cassandra concurrently.
type Worker struct {
	archive      archive.Archive
	reader       appkafka.KafkaReader
	metrics      *metrics.Collector
	workerCount  int
	jobQueueSize int
}

// New creates a new concurrent Worker using pre-initialized dependencies.
// m may be nil.
func New(a archive.Archive, reader appkafka.KafkaReader, m *metrics.Collector, workerCount, jobQueueSize int) *Worker {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobQueueSize <= 0 {
		jobQueueSize = workerCount * 10
	}
	return &Worker{
		archive:      a,
		reader:       reader,
		metrics:      m,
		workerCount:  workerCount,
		jobQueueSize: jobQueueSize,
	}
}

// Run starts message reading and concurrent processing. It returns once ctx
// is canceled and every queued event has been handled.
func (w *Worker) Run(ctx context.Context) {
	if w.workerCount <= 0 {
		w.workerCount = 1
	}
	if w.jobQueueSize <= 0 {
		w.jobQueueSize = 10
	}

	logg.Info("worker", "Starting "+fmt.Sprint(w.workerCount)+" workers with queue size "+fmt.Sprint(w.jobQueueSize))

	jobs := make(chan kafka.Message, w.jobQueueSize)
	var wg sync.WaitGroup

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processLoop(ctx, jobs)
		}()
	}

	w.readLoop(ctx, jobs)

	close(jobs)
	wg.Wait()
	logg.Info("worker", "All workers stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into a job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- kafka.Message) {
	var retry int
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := w.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
				logg.Error("worker", "Kafka read error, backing off", err)
				if !waitWithContext(ctx, backoff) {
					return
				}
				retry++
				continue
			}
			retry = 0

			if len(msg.Value) == 0 {
				if !waitWithContext(ctx, 50*time.Millisecond) {
					return
				}
				continue
			}

			for queued := false; !queued; {
				select {
				case jobs <- msg:
					queued = true
				case <-ctx.Done():
					return
				case <-time.After(100 * time.Millisecond):
					logg.Info("worker", "Queue full, waiting to enqueue Kafka message")
				}
			}
		}
	}
}

// processLoop drains jobs until the channel is closed.
func (w *Worker) processLoop(ctx context.Context, jobs <-chan kafka.Message) {
	for msg := range jobs {
		if err := w.handle(ctx, msg); err != nil {
			logg.Error("worker", "Failed to archive tweet event", err)
		}
	}
}

// handle decodes one message and appends it to the archive.
func (w *Worker) handle(ctx context.Context, msg kafka.Message) error {
	ev, err := appkafka.DecodeEvent(msg)
	if err != nil {
		w.observe("invalid")
		return err
	}
	// archive writes are allowed to finish after shutdown starts
	if err := w.archive.Append(context.WithoutCancel(ctx), ev); err != nil {
		w.observe("failed")
		return err
	}
	w.observe("archived")
	return nil
}

func (w *Worker) observe(outcome string) {
	if w.metrics != nil {
		w.metrics.EventProcessed(outcome)
	}
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down Kafka reader and Cassandra session.
func (w *Worker) Close() error {
	logg.Info("worker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		logg.Error("worker", "Error closing Kafka reader", err)
		return err
	}

	logg.Info("worker", "Closing Cassandra session")
	w.archive.Close()
	return nil
}
