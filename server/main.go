package main

import (
	"context"
	"errors"
	"flag"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go-price-converter/config"
	"go-price-converter/convert"
	"go-price-converter/http"
	"go-price-converter/logging"
	"go-price-converter/ratesource"
	"go-price-converter/registry"
	"os"
	"os/signal"
	"syscall"
	"time"

	nhttp "net/http"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile, ".env")
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	ratesService := ratesource.NewService(cfg.Rates.Base, cfg.Rates.Timeout, cfg.Rates.URLs...)
	ratesService = ratesource.NewLoggingService(level.Debug(log.With(logger, "component", "ratesource_rest")), ratesService)
	ratesService = ratesource.NewCachingService(cfg.Rates.TTL, level.Warn(log.With(logger, "component", "ratesource_cache")), ratesService)
	ratesService = ratesource.NewLoggingService(level.Debug(log.With(logger, "component", "ratesource_cache")), ratesService)

	metrics := convert.NewMetrics(prometheus.DefaultRegisterer)
	reg := registry.Default()
	convertLogger := level.Info(log.With(logger, "component", "convert"))
	factory := func() convert.Service {
		s := convert.NewService(reg, cfg.Locator)
		s = convert.NewInstrumentingService(metrics, s)
		return convert.NewLoggingService(convertLogger, s)
	}

	mux := nhttp.NewServeMux()
	api := http.NewServer(factory, ratesService, cfg.Preferences, log.With(logger, "component", "http"),
		http.WithSessionLimits(cfg.Sessions.TTL, cfg.Sessions.Max))
	mux.Handle("/api/", api)
	mux.Handle("/metrics", promhttp.Handler())

	server := &nhttp.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()

	level.Info(logger).Log("msg", "listening", "addr", cfg.Listen, "target", cfg.Preferences.Target)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nhttp.ErrServerClosed) {
		level.Error(logger).Log("msg", "server failed", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "stopped")
}
