// Command gowsd is the wireless station authentication daemon: it owns one
// network interface's Fast BSS Transition roaming state and Device
// Provisioning Protocol bootstrap/authentication/configuration exchanges,
// and exposes both over a small ConnectRPC control surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"connectrpc.com/connect"

	"github.com/gowsd/gowsd/internal/config"
	"github.com/gowsd/gowsd/internal/dbussvc"
	"github.com/gowsd/gowsd/internal/ft"
	"github.com/gowsd/gowsd/internal/metrics"
	"github.com/gowsd/gowsd/internal/netlink"
	"github.com/gowsd/gowsd/internal/server"
	appversion "github.com/gowsd/gowsd/internal/version"
)

func main() {
	configPath := flag.String("config", "/etc/gowsd/gowsd.yml", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appversion.Full("gowsd"))
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("gowsd exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	engine := ft.NewEngine()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector()
	collector.MustRegister(reg)

	// The netlink socket backs the control surface's diagnostic
	// DecodeNetlinkAttrs query and the FT runner below; a dial failure (no
	// nl80211 family on this kernel, running in a container without
	// CAP_NET_ADMIN, ...) degrades those two instead of the whole daemon.
	netConn, nlErr := netlink.Dial()
	if nlErr != nil {
		logger.Warn("netlink socket unavailable, diagnostic queries disabled", slog.Any("error", nlErr))
	} else {
		defer netConn.Close()
	}

	// With a live netlink socket, FT transitions go all the way to the
	// air: the runner serializes attempts per phy and transmits through
	// the frame command. Without one, TriggerFTTransition degrades to
	// rendering request IEs.
	var runner *ft.Runner
	if netConn != nil {
		stationMAC, merr := net.ParseMAC(cfg.Station.MAC)
		if merr != nil {
			logger.Warn("station MAC unset or invalid, FT transmission disabled", slog.Any("error", merr))
		} else {
			sender := netlink.NewFrameSender(netConn, func(int) net.HardwareAddr { return stationMAC })
			runner = ft.NewRunner(engine, sender, ft.NewSerialWork(), ft.NewTimerOffChannel())
			runner.OnDone = func(a *ft.Attempt, err error) {
				if err != nil {
					logger.Warn("ft attempt failed",
						slog.String("aa", a.AA.String()), slog.String("state", a.State.String()), slog.Any("error", err))
					return
				}
				logger.Info("ft attempt complete", slog.String("aa", a.AA.String()))
			}
		}
	}

	if dsvc, derr := dbussvc.Connect(); derr != nil {
		logger.Warn("d-bus status service unavailable", slog.Any("error", derr))
	} else if err := dsvc.Export(); err != nil {
		logger.Warn("d-bus status export failed", slog.Any("error", err))
		_ = dsvc.Close()
	} else {
		dsvc.Update(dbussvc.Status{
			Interface:  cfg.Station.Interface,
			MAC:        cfg.Station.MAC,
			DPPEnabled: cfg.DPP.Enabled,
		})
		defer dsvc.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSrv := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: newMetricsMux(cfg.Metrics.Path, reg),
	}

	// h2c lets ConnectRPC's gRPC-compatible framing run over cleartext
	// HTTP/2, so station-local CLI and D-Bus-less callers don't need TLS.
	controlHandler := server.New(cfg, engine, runner, logger, collector, netConn, connect.WithInterceptors(server.ErrorTranslationInterceptor()))
	controlSrv := &http.Server{
		Addr:    cfg.GRPC.Addr,
		Handler: h2c.NewHandler(controlHandler, &http2.Server{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("metrics endpoint listening", slog.String("addr", cfg.Metrics.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("control surface listening", slog.String("addr", cfg.GRPC.Addr))
		if err := controlSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("control server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx := context.Background()
		_ = metricsSrv.Shutdown(shutdownCtx)
		_ = controlSrv.Shutdown(shutdownCtx)
		return nil
	})

	return g.Wait()
}

func newMetricsMux(path string, reg prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
