package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/okian/olrank/internal/adapters/http/api"
	"github.com/okian/olrank/internal/adapters/http/swagger"
	"github.com/okian/olrank/internal/adapters/repository"
	"github.com/okian/olrank/internal/adapters/timing"
	service "github.com/okian/olrank/internal/app"
	"github.com/okian/olrank/internal/config"
	"github.com/okian/olrank/pkg/logger"
	"github.com/okian/olrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
	maxClubsPerPage   = 200
)

const usage = `usage: olrank <command> [flags]

commands:
  build-index                       rebuild athlete-index.json and club-stats.json
  link-events                       link events to timing-source event ids
  scrape-timing [-limit N] [-delay MS]
                                    collect timing records for linked events
  profile <name>                    print one athlete profile as JSON
  serve                             serve the read API
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if errors.Is(err, errUsage) {
		os.Stderr.WriteString(usage)
		os.Exit(2)
	}
	if err != nil {
		os.Stderr.WriteString("olrank: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "build-index":
		svc, err := newService(cfg, log, false)
		if err != nil {
			return err
		}
		_, err = svc.BuildIndex(ctx)
		return finishBatch(ctx, cfg, log, service.StageBuildIndex, err)

	case "link-events":
		svc, err := newService(cfg, log, true)
		if err != nil {
			return err
		}
		_, err = svc.LinkEvents(ctx)
		return finishBatch(ctx, cfg, log, service.StageLinkEvents, err)

	case "scrape-timing":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		limit := fs.Int("limit", cfg.EventLimit, "maximum events to scrape (0 = no limit)")
		delay := fs.Int("delay", cfg.RequestDelayMS, "delay between requests in milliseconds")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		if *limit < 0 || *delay < 0 {
			return fmt.Errorf("%w: -limit and -delay must be >= 0", errUsage)
		}
		cfg.EventLimit = *limit
		cfg.RequestDelayMS = *delay
		svc, err := newService(cfg, log, true)
		if err != nil {
			return err
		}
		_, err = svc.ScrapeTiming(ctx, cfg.EventLimit)
		return finishBatch(ctx, cfg, log, service.StageScrapeTiming, err)

	case "profile":
		name := strings.TrimSpace(strings.Join(rest, " "))
		if name == "" {
			return fmt.Errorf("%w: profile needs an athlete name", errUsage)
		}
		svc, err := newService(cfg, log, false)
		if err != nil {
			return err
		}
		p, err := svc.AthleteProfile(ctx, name)
		if err != nil {
			return err
		}
		enc := sonic.ConfigStd.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)

	case "serve":
		svc, err := newService(cfg, log, false)
		if err != nil {
			return err
		}
		return serve(ctx, cfg, log, svc)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func newService(cfg *config.Config, log logger.Logger, withTiming bool) (*service.Service, error) {
	store := repository.NewFileStore(cfg.RankingsDir, cfg.EventsFile, cfg.OutputDir, repository.WithIndent(true))
	opts := []service.Option{
		service.WithLogger(log),
		service.WithFlushEvery(cfg.FlushEvery),
		service.WithEventLimit(cfg.EventLimit),
	}
	if withTiming {
		client, err := timing.NewClient(cfg.TimingBaseURL,
			timing.WithUserAgent(cfg.UserAgent),
			timing.WithDelay(cfg.RequestDelay()),
			timing.WithTimeout(cfg.FetchTimeout()),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithTimingSource(client))
	}
	return service.New(store, opts...), nil
}

// finishBatch pushes the registry after a batch stage. A failed push is
// logged and never turns a successful stage into a failure.
func finishBatch(ctx context.Context, cfg *config.Config, log logger.Logger, stage string, stageErr error) error {
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.FetchTimeout())
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.PushgatewayURL, "olrank_"+stage); err != nil {
		log.Warn(ctx, "metrics push failed", logger.String("stage", stage), logger.Error(err))
	}
	return stageErr
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger, svc *service.Service) error {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, maxClubsPerPage, api.WithLogger(log.Named("api"))).Register(mux)
	swagger.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
