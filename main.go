package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vision-gateway/api"
	"github.com/khaledhikmat/vision-gateway/mode"
	"github.com/khaledhikmat/vision-gateway/service/config"
	"github.com/khaledhikmat/vision-gateway/service/data"
	"github.com/khaledhikmat/vision-gateway/service/inference"
	"github.com/khaledhikmat/vision-gateway/service/lgr"
	"github.com/khaledhikmat/vision-gateway/service/metrics"
	"github.com/khaledhikmat/vision-gateway/service/storage"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"gateway": mode.Gateway,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode. A missing .env file is fine.
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			lgr.Logger.Error("error loading .env file", slog.Any("error", xerrors.New(err.Error())))
			panic("error loading .env file")
		}
	}

	modeType := "gateway"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// Config service
	cfgSvc := config.NewEnv()

	logCloser := lgr.Setup(lgr.Options{
		Level:  cfgSvc.GetLogLevel(),
		Pretty: cfgSvc.GetRuntimeEnv() == "dev",
		File:   cfgSvc.GetLogFile(),
	})
	defer logCloser.Close()

	// Metrics service: the rolling store is the source of truth, prometheus mirrors it
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsSvc := metrics.NewPrometheus(registry, metrics.NewRolling(cfgSvc.GetMetricsWindow(), cfgSvc.GetMetricsMaxOutputBytes()))

	svcs := api.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      data.NewFilesDB(cfgSvc),
		StorageSvc:   storage.NewLocal(cfgSvc),
		InferenceSvc: inference.NewHTTP(cfgSvc, metricsSvc),
		MetricsSvc:   metricsSvc,
		Gatherer:     registry,
	}

	lgr.Logger.Info(
		"vision gateway starting",
		slog.String("mode", modeType),
		slog.String("playerURL", cfgSvc.GetBackendURL("player")),
		slog.String("playerMode", string(cfgSvc.GetBackendMode("player"))),
		slog.String("crowdURL", cfgSvc.GetBackendURL("crowd")),
		slog.String("crowdMode", string(cfgSvc.GetBackendMode("crowd"))),
		slog.Int("backendTimeoutSeconds", cfgSvc.GetBackendTimeout()),
	)

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	// Wait for cancellation or mode proc
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"vision gateway context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Error(
				"vision gateway mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
		canxFn()
		return
	}

	lgr.Logger.Info(
		"vision gateway is waiting for the mode processor to exit",
	)

	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"vision gateway shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Error(
				"vision gateway mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}
}
