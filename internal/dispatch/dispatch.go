// Package dispatch pushes one message to every configured channel and
// collects a result per channel in configuration order.
package dispatch

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/sendmessage/internal/channel"
	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
)

// Entry is one channel section of the configuration file.
type Entry struct {
	Name   string
	Config tailoring.Values
}

// Adapters resolves a channel name to its adapter. *channel.Registry
// satisfies it.
type Adapters interface {
	Lookup(name string) (channel.Adapter, bool)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency sets how many channels may be in flight at once. Values
// below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n < 1 {
			n = 1
		}
		d.concurrency = n
	}
}

// WithRateLimit paces channel starts with a token bucket. A non-positive rps
// turns pacing off.
func WithRateLimit(rps float64, burst int) Option {
	return func(d *Dispatcher) {
		d.limiter = NewTokenBucketLimiter(rps, burst)
	}
}

// WithLimiter installs a custom limiter.
func WithLimiter(l Limiter) Option {
	return func(d *Dispatcher) {
		d.limiter = l
	}
}

// Dispatcher sends messages through the adapters it was built with.
type Dispatcher struct {
	adapters    Adapters
	logger      *zap.Logger
	concurrency int
	limiter     Limiter
}

// New returns a sequential, unpaced Dispatcher unless opts say otherwise.
func New(adapters Adapters, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		adapters:    adapters,
		logger:      logger,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type job struct {
	entry   Entry
	adapter channel.Adapter
}

// Run sends msg to every entry with a known channel name. Results follow the
// order of entries; unknown names produce no result.
func (d *Dispatcher) Run(ctx context.Context, entries []Entry, msg message.Message) []Result {
	jobs := make([]job, 0, len(entries))
	for _, e := range entries {
		adapter, ok := d.adapters.Lookup(e.Name)
		if !ok {
			d.logger.Debug("skipping unknown channel", zap.String("channel", e.Name))
			continue
		}
		jobs = append(jobs, job{entry: e, adapter: adapter})
	}

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, j := range jobs {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				results[i] = Result{Channel: j.entry.Name, Err: err}
				continue
			}
		}
		g.Go(func() error {
			results[i] = d.send(ctx, j, msg)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) send(ctx context.Context, j job, msg message.Message) (res Result) {
	name := j.entry.Name
	res.Channel = name
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("channel panicked", zap.String("channel", name), zap.Any("panic", r))
			res.Response = ""
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	format := j.adapter.Format()
	title, body := message.Build(msg, format)
	cfg := tailoring.Resolve(j.entry.Config, title)

	if ce := d.logger.Check(zap.DebugLevel, "sending"); ce != nil {
		ce.Write(
			zap.String("channel", name),
			zap.String("body_size", humanize.Bytes(uint64(len(body)))),
			zap.Bool("truncated", truncated(msg, format)),
		)
	}

	res.Response, res.Err = j.adapter.Send(ctx, cfg, title, body)

	fields := []zap.Field{zap.String("channel", name), zap.Duration("duration", time.Since(start))}
	if res.Err != nil {
		d.logger.Warn("channel failed", append(fields, zap.Error(res.Err))...)
	} else {
		d.logger.Debug("channel sent", fields...)
	}
	return res
}

// truncated reports whether format's cap cut the body of msg.
func truncated(msg message.Message, format message.Format) bool {
	if format.MaxLength <= 0 || msg.IsSentinel() {
		return false
	}
	_, full := message.Build(msg, message.Format{Delimiter: format.Delimiter})
	return utf8.RuneCountInString(full) > format.MaxLength
}
