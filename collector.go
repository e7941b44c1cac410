// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// CollectorConfig holds the build-time-in-spirit knobs the host controls:
// the initial threshold is fixed at 2 KiB and is not configurable, but the
// marking strategy and the optional ambient logging/metrics hookups are.
type CollectorConfig struct {
	MarkMode MarkMode
	Logger   *slog.Logger
	Metrics  *Metrics
}

// Option configures a Collector at creation time.
type Option func(*CollectorConfig)

// WithMarkMode selects the grey-queue or recursive marking strategy.
func WithMarkMode(mode MarkMode) Option {
	return func(c *CollectorConfig) { c.MarkMode = mode }
}

// WithLogger attaches a structured logger that receives a debug-level
// record after every collection (byte counts, duration). Fatal programming
// errors are never routed through the logger — they panic.
func WithLogger(l *slog.Logger) Option {
	return func(c *CollectorConfig) { c.Logger = l }
}

// WithMetrics attaches a Metrics instance (see metrics.go) that mirrors
// every collection's stats as Prometheus series.
func WithMetrics(m *Metrics) Option {
	return func(c *CollectorConfig) { c.Metrics = m }
}

// Collector is the shared, refcounted collector state: the heap, the
// shadow stack, and the thresholds. It is created once and handed to one
// or more Contexts.
type Collector struct {
	identity    uuid.UUID
	alloc       *allocator
	roots       shadowStack
	collections atomic.Uint64 // informational: number of collections run
	threshold   uint64
	config      CollectorConfig
	refs        atomic.Int64
}

// CreateCollector builds a new, empty Collector.
func CreateCollector(opts ...Option) *Collector {
	cfg := CollectorConfig{MarkMode: MarkQueue}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Collector{
		identity:  uuid.New(),
		alloc:     newAllocator(),
		threshold: initialThreshold,
		config:    cfg,
	}
}

// IntoContext and CreateContext both mint a new Context sharing this
// collector. The source design distinguishes a consuming into_context (the
// sole owner) from a sharing create_context; Go has no move semantics to
// make that distinction meaningful, so both are provided for API parity and
// behave identically — each just increments the collector's reference
// count.
func (c *Collector) IntoContext() *Context   { return c.newContext() }
func (c *Collector) CreateContext() *Context { return c.newContext() }

func (c *Collector) newContext() *Context {
	c.refs.Add(1)
	return &Context{collector: c, creator: currentGoroutineID()}
}

// LiveBytes reports the allocator's current live-byte total.
func (c *Collector) LiveBytes() uint64 { return c.alloc.liveBytes }

// Threshold reports the byte total that will trigger the next collection.
func (c *Collector) Threshold() uint64 { return c.threshold }

// Identity returns the collector's opaque identity tag.
func (c *Collector) Identity() uuid.UUID { return c.identity }

// Collections reports how many mark-sweep cycles have run so far.
func (c *Collector) Collections() uint64 { return c.collections.Load() }

func (c *Collector) recordCollection(stats collectionStats) {
	c.collections.Add(1)
	if c.config.Logger != nil {
		c.config.Logger.Debug("shadowgc collection",
			"survived_bytes", stats.survivedBytes,
			"freed_bytes", stats.freedBytes,
			"duration", stats.duration,
			"threshold", c.threshold,
		)
	}
	if c.config.Metrics != nil {
		c.config.Metrics.observe(c, stats)
	}
}
