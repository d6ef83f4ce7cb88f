package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/ini.v1"

	"aribridge/ari"
)

func connectARI(ctx context.Context, s *Settings) (*ari.WebSocketTransport, error) {
	coreLog.Infof("connecting to ARI at %s:%d as %s", s.Host(), s.Port(), s.App())
	t, err := ari.DialWebSocket(ctx, s.EventsURL(), nil, ariLog)
	if err != nil {
		return nil, fmt.Errorf("ari connect: %w", err)
	}
	return t, nil
}

// serveMetrics exposes reg until ctx is canceled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	coreLog.Infof("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func run(ctx context.Context, settings *Settings) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	directory := NewEndpointDirectory(settings.DialEndpoint())
	directory.Set(settings.Endpoints())
	coreLog.Infof("endpoint directory loaded with %d extensions", directory.Len())

	gw := NewGateway(settings, directory, newAppMetrics(reg, settings.MetricsNamespace()), coreLog)

	transport, err := connectARI(ctx, settings)
	if err != nil {
		return err
	}
	client := ari.NewClient(transport,
		ari.WithLogger(ariLog),
		ari.WithFrameLogger(frameLog),
		ari.WithMetrics(ari.NewMetrics(reg, settings.MetricsNamespace())),
		ari.WithEventHandlers(gw.EventHandlers()),
		ari.WithGenericHandler(gw.HandleAny),
		ari.WithRequestTimeout(settings.RequestTimeout()),
	)
	defer client.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Run(gctx)
	})
	if addr := settings.MetricsListenAddress(); addr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, addr, reg)
		})
	}

	err = g.Wait()
	_ = client.Close()
	gw.Wait()
	return err
}

func main() {
	path := "settings.ini"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := ini.Load(path)
	if err != nil {
		fmt.Printf("failed to load settings: %v\n", err)
		os.Exit(1)
	}

	settings, err := LoadSettings(cfg)
	if err != nil {
		fmt.Printf("failed to parse settings: %v\n", err)
		os.Exit(1)
	}

	if err := initLogging(cfg); err != nil {
		fmt.Printf("failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLogging()
	coreLog.Info("settings loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, settings); err != nil {
		coreLog.Errorf("gateway stopped: %v", err)
		closeLogging()
		os.Exit(1)
	}

	coreLog.Info("performing a graceful shutdown...")
}
