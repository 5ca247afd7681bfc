package application

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/sendmessage/internal/channel"
	"github.com/eugenenazirov/sendmessage/internal/config"
	"github.com/eugenenazirov/sendmessage/internal/dispatch"
	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

// Option customises how New wires the application.
type Option func(*options)

type options struct {
	channelOpts []channel.Option
}

// WithChannelOptions passes extra options to the channel registry, e.g. a
// fake mail sender in tests.
func WithChannelOptions(opts ...channel.Option) Option {
	return func(o *options) {
		o.channelOpts = append(o.channelOpts, opts...)
	}
}

// App encapsulates the application dependencies for one run.
type App struct {
	entries    []dispatch.Entry
	registry   *channel.Registry
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
	runID      string
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	registry := channel.NewRegistry(
		transport.NewFactory(cfg.Timeout),
		append([]channel.Option{channel.WithLogger(logger)}, o.channelOpts...)...,
	)
	dispatcher := dispatch.New(registry, logger,
		dispatch.WithConcurrency(cfg.Concurrency),
		dispatch.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	entries := make([]dispatch.Entry, 0, len(cfg.Channels))
	for _, c := range cfg.Channels {
		entries = append(entries, dispatch.Entry{Name: c.Name, Config: c.Values})
	}

	return &App{
		entries:    entries,
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
		runID:      runID,
	}, nil
}

// Run sends msg to every configured channel and writes one result line per
// channel to out.
func (a *App) Run(ctx context.Context, msg message.Message, out io.Writer) ([]dispatch.Result, error) {
	a.logger.Info("dispatching message",
		zap.Int("channels", len(a.entries)),
		zap.Bool("sentinel", msg.IsSentinel()),
	)

	results := a.dispatcher.Run(ctx, a.entries, msg)
	if err := dispatch.Print(out, results); err != nil {
		return results, fmt.Errorf("write results: %w", err)
	}
	return results, nil
}

// RunID identifies this run in the logs.
func (a *App) RunID() string {
	return a.runID
}
