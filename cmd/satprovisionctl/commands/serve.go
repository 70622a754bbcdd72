package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cubesat-fc/satstate"
	"github.com/cubesat-fc/satstate/errorlog"
	"github.com/cubesat-fc/satstate/httpstatus"
	"github.com/cubesat-fc/satstate/metrics"
	"github.com/cubesat-fc/satstate/raid"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only ground-ops status and metrics HTTP surface",
}

func init() {
	v := viper.New()
	bindBusFlags(serveCmd, v)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadBusConfig(v)
		if err != nil {
			return err
		}
		return runServe(cmd, cfg)
	}
}

func runServe(cmd *cobra.Command, cfg BusConfig) error {
	bus, closer, err := buildBus(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	reg := prometheus.NewRegistry()
	coord := satstate.New(satstate.Config{
		Bus:         bus,
		NowMillis:   nowMillisSinceProcessStart,
		GetSatState: func() satstate.SatState { return satstate.SatStateIdle },
		Metrics:     metrics.New(reg),
	})
	coord.Init()
	coord.Load()

	errStack := errorlog.NewStack(satstate.ErrorStackMax)
	persistor := errorlog.NewPersistor(raid.New(bus, nil), nil, satstate.AddrErrorCount, satstate.AddrErrorLog, satstate.ErrorStackMax)
	if err := persistor.Populate(errStack); err != nil {
		return fmt.Errorf("satprovisionctl: load error log: %w", err)
	}

	r := chi.NewRouter()
	r.Mount("/status", httpstatus.NewHandler(coord, errStack).Routes())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: serveAddr, Handler: r}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		cmd.Printf("satprovisionctl serving on %s (bus kind=%s)\n", serveAddr, cfg.Kind)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("satprovisionctl: serve: %w", err)
	}
}
