package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/sendmessage/internal/application"
	"github.com/eugenenazirov/sendmessage/internal/config"
	"github.com/eugenenazirov/sendmessage/internal/logging"
	"github.com/eugenenazirov/sendmessage/internal/message"
)

var (
	version = "dev"

	notifyContext = signal.NotifyContext
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New("sendmessage", "Push a title and body lines to every channel in the config file")
	kingpinApp.Version(version)
	// Body lines such as "-5 degrees" are arguments, not flags.
	kingpinApp.Interspersed(false)
	kingpinApp.UsageWriter(stdout)
	kingpinApp.ErrorWriter(stderr)

	configFile := kingpinApp.Flag("config", "Path to YAML configuration file (a bare name is looked up next to the executable)").
		Short('c').Default(config.DefaultFileName).String()
	args := kingpinApp.Arg("args", "Title followed by body lines").Strings()

	if _, err := kingpinApp.Parse(argv); err != nil {
		fmt.Fprintf(stderr, "sendmessage: %v\n", err)
		return 2
	}

	path, err := config.ResolvePath(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "reading config from: %s\n", path)

	cfg, err := config.Load(&config.CLIOverrides{ConfigFile: path})
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return 1
	}

	ctx, stop := notifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := app.Run(ctx, message.FromArgs(*args), stdout); err != nil {
		logger.Error("run failed", zap.Error(err))
		return 1
	}
	return 0
}
