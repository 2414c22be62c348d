// Package analytics buffers run lifecycle events and publishes them to
// Kafka in batches.
package analytics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/kafka"
)

// Publisher is the subset of kafka.Producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
	Close() error
}

// Collector accumulates events and publishes them when the buffer reaches
// batchSize and on Close. A Collector with a nil publisher drops every
// event, which is how runs without Kafka are wired.
type Collector struct {
	publisher Publisher
	mu        sync.Mutex
	buffer    []kafka.Event
	batchSize int
	dropped   int
	logger    *slog.Logger
}

func NewCollector(publisher Publisher, batchSize int) *Collector {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Collector{
		publisher: publisher,
		buffer:    make([]kafka.Event, 0, batchSize),
		batchSize: batchSize,
		logger:    slog.Default().With("component", "analytics-collector"),
	}
}

// Track buffers an event under key. A full buffer is flushed synchronously;
// publish failures are logged and never surface to the caller.
func (c *Collector) Track(ctx context.Context, key string, value any) {
	if c == nil || c.publisher == nil {
		return
	}
	c.mu.Lock()
	c.buffer = append(c.buffer, kafka.Event{Key: key, Value: value})
	full := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if full {
		c.Flush(ctx)
	}
}

// Flush publishes everything buffered. Failed events are kept for the next
// flush up to three batches; older ones are dropped.
func (c *Collector) Flush(ctx context.Context) {
	if c == nil || c.publisher == nil {
		return
	}
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]kafka.Event, 0, c.batchSize)
	c.mu.Unlock()

	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("batch flush failed",
			"batch_size", len(batch),
			"error", err,
		)
		c.mu.Lock()
		c.buffer = append(batch, c.buffer...)
		if limit := c.batchSize * 3; len(c.buffer) > limit {
			n := len(c.buffer) - limit
			c.buffer = c.buffer[n:]
			c.dropped += n
			c.logger.Warn("buffer overflow, events dropped", "dropped", n)
		}
		c.mu.Unlock()
		return
	}
	c.logger.Debug("batch flushed", "events", len(batch))
}

// Pending returns the number of buffered events.
func (c *Collector) Pending() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Dropped returns how many events were discarded after failed flushes.
func (c *Collector) Dropped() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close flushes what is left and closes the publisher.
func (c *Collector) Close(ctx context.Context) error {
	if c == nil || c.publisher == nil {
		return nil
	}
	c.Flush(ctx)
	if n := c.Pending(); n > 0 {
		c.logger.Warn("events not published before close", "pending", n)
	}
	return c.publisher.Close()
}
