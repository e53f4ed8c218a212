package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"example.com/twitterfeed/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Floods the tweet event topic with synthetic tweet_created events to
// measure archive worker throughput.
func main() {
	var (
		total       int
		batchSize   int
		numWorkers  int
		kafkaBroker string
		topic       string
	)
	flag.IntVar(&total, "n", 100000, "total number of events to send")
	flag.IntVar(&batchSize, "batch", 100, "batch size for sending events")
	flag.IntVar(&numWorkers, "c", 4, "number of parallel goroutines")
	flag.StringVar(&kafkaBroker, "broker", "localhost:29092", "kafka broker address")
	flag.StringVar(&topic, "topic", "tweet-events", "tweet event topic")
	flag.Parse()

	// Kafka writer with asynchronous sending enabled
	w := &kafka.Writer{
		Addr:     kafka.TCP(kafkaBroker),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    true,
	}
	defer w.Close()

	start := time.Now()

	var successCount uint64
	var failCount uint64

	// Channel for feeding event indexes to worker goroutines
	jobs := make(chan int, total)
	var wg sync.WaitGroup

	flush := func(batch []kafka.Message) {
		if err := w.WriteMessages(context.Background(), batch...); err != nil {
			atomic.AddUint64(&failCount, uint64(len(batch)))
			fmt.Printf("write error: %v\n", err)
			return
		}
		atomic.AddUint64(&successCount, uint64(len(batch)))
	}

	// --- Start worker goroutines ---
	for wID := 0; wID < numWorkers; wID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]kafka.Message, 0, batchSize)

			for i := range jobs {
				ev := models.TweetEvent{
					ID:       uuid.NewString(),
					Type:     models.EventTweetCreated,
					TweetID:  int64(i + 1),
					UserID:   int64(i%1000 + 1),
					Tweet:    fmt.Sprintf("kafka bench %d", i),
					DateTime: models.Stamp(time.Now()),
				}

				v, err := json.Marshal(ev)
				if err != nil {
					atomic.AddUint64(&failCount, 1)
					fmt.Printf("marshal error: %v\n", err)
					continue
				}

				batch = append(batch, kafka.Message{Key: []byte(ev.Type), Value: v})
				if len(batch) >= batchSize {
					flush(batch)
					batch = batch[:0]
				}
			}

			// Send any remaining events after finishing loop
			if len(batch) > 0 {
				flush(batch)
			}
		}()
	}

	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	// --- Benchmark results ---
	elapsed := time.Since(start)
	fmt.Printf("Total events: %d\n", total)
	fmt.Printf("Successful: %d, Failed: %d\n", successCount, failCount)
	fmt.Printf("Elapsed time: %s\n", elapsed)
	fmt.Printf("Throughput: %.2f msg/s\n", float64(successCount)/elapsed.Seconds())
}
