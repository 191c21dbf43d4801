package server

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/usecase"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/config"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/metrics"
)

// App encapsulates one batch invocation of the feature engine: run the
// phases, push metrics if configured, exit. There is no long-running server;
// SIGINT/SIGTERM cancel the in-flight run.
type App struct {
	cfg      *config.Config
	engine   *usecase.Engine
	recorder *metrics.Recorder
	l        *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, engine *usecase.Engine, recorder *metrics.Recorder, l *applogger.Logger) *App {
	return &App{cfg: cfg, engine: engine, recorder: recorder, l: l}
}

// Run executes the engine once and blocks until it finishes or a shutdown
// signal cancels it.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := a.engine.Run(ctx)
	a.pushMetrics()
	if err != nil {
		a.l.Error("feature refresh failed",
			applogger.Int("indicator_rows", report.IndicatorRows),
			applogger.Int("chip_rows", report.ChipRows),
			applogger.Int("breadth_rows", report.BreadthRows),
			applogger.Error(err),
		)
		return err
	}
	return nil
}

// pushMetrics publishes the run's metrics to the Pushgateway when enabled.
// Best-effort: the job result does not depend on it.
func (a *App) pushMetrics() {
	if !a.cfg.Metrics.PushEnabled {
		return
	}
	if err := a.recorder.Push(a.cfg.Metrics.GatewayURL, a.cfg.Metrics.JobName); err != nil {
		a.l.Warn("metrics push failed",
			applogger.String("gateway", a.cfg.Metrics.GatewayURL),
			applogger.Error(err),
		)
	}
}
