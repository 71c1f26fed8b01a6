package mode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/khaledhikmat/vision-gateway/api"
	"github.com/khaledhikmat/vision-gateway/service/lgr"
)

// Gateway serves the HTTP API until the context is cancelled, then gives
// in-flight requests the configured shutdown time to finish.
func Gateway(canxCtx context.Context, svcs api.ServicesFactory) error {
	srv := &http.Server{
		Addr:              svcs.CfgSvc.GetHTTPAddr(),
		Handler:           api.NewRouter(svcs),
		ReadHeaderTimeout: 30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		lgr.Logger.Info(
			"gateway listening",
			slog.String("addr", srv.Addr),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"gateway context cancelled",
		)

	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	period := time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second
	lgr.Logger.Info(
		"gateway is waiting for in-flight requests",
		slog.Duration("period", period),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), period)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Logger.Warn(
			"gateway shutdown waiting period expired",
			slog.Any("error", err),
		)
		return srv.Close()
	}

	return nil
}
