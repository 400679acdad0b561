package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/kafka"
)

// Tracker accepts analytics events without blocking the caller.
type Tracker interface {
	Track(event any)
}

// Publisher ships event batches to an external sink such as Kafka.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector feeds tracked events to the in-process aggregator and, when a
// publisher is configured, to Kafka in batches flushed by size or interval.
type Collector struct {
	aggregator    *Aggregator
	publisher     Publisher
	eventCh       chan any
	batch         []kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
	closeOnce     sync.Once
}

func NewCollector(aggregator *Aggregator, publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		aggregator:    aggregator,
		publisher:     publisher,
		eventCh:       make(chan any, bufferSize),
		batch:         make([]kafka.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start runs the collection loop until Close is called or ctx ends.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.flush(context.Background())
					return
				}
				c.handle(ctx, event)
			case <-ticker.C:
				c.flush(ctx)
			case <-ctx.Done():
				c.drainRemaining()
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"publish_kafka", c.publisher != nil,
	)
}

// Track enqueues event, dropping it when the buffer is full.
func (c *Collector) Track(event any) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for pending ones to be handled.
// It must only be called after Start.
func (c *Collector) Close() {
	c.closeOnce.Do(func() { close(c.eventCh) })
	<-c.done
}

func (c *Collector) handle(ctx context.Context, event any) {
	key := "analytics"
	switch e := event.(type) {
	case SearchEvent:
		if c.aggregator != nil {
			c.aggregator.RecordSearch(e)
		}
		key = string(e.Type)
	case IndexBuildEvent:
		if c.aggregator != nil {
			c.aggregator.RecordBuild(e)
		}
		key = e.Generation
	}
	if c.publisher == nil {
		return
	}
	c.batch = append(c.batch, kafka.Event{Key: key, Value: event})
	if len(c.batch) >= c.batchSize {
		c.flush(ctx)
	}
}

func (c *Collector) flush(ctx context.Context) {
	if c.publisher == nil || len(c.batch) == 0 {
		return
	}
	batch := c.batch
	c.batch = make([]kafka.Event, 0, c.batchSize)
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
		if len(batch) < c.batchSize*3 {
			c.batch = append(batch, c.batch...)
		} else {
			c.logger.Warn("analytics events dropped", "dropped", len(batch))
		}
		return
	}
	c.logger.Debug("batch flushed", "events", len(batch))
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.handle(context.Background(), event)
		default:
			return
		}
	}
}
