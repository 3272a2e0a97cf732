package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazybuddy/buddy/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API with scheduled analysis",
	Long: "Serves the read/confirm API on loopback and runs the correlation and\n" +
		"pattern analysis on the configured cron schedule. The server shares the\n" +
		"process's single store instances; do not run a second writer against\n" +
		"the same memory directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		addr := serveAddr
		if addr == "" {
			addr = a.cfg.ListenAddr()
		}

		srv := &http.Server{
			Addr:         addr,
			Handler:      server.New(a.metrics, a.engine, a.detector, Version),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}

		sched := cron.New()
		if spec := a.cfg.Analysis.Schedule; spec != "" {
			_, err := sched.AddFunc(spec, func() {
				a.log.Info("SERVER", "scheduled analysis starting")
				results := a.engine.Analyze(a.cfg.Analysis.WindowDays)
				report := a.detector.RunFullAnalysis()
				a.log.Info("SERVER", "scheduled analysis complete",
					zap.Int("correlations", len(results)),
					zap.Int("patterns", len(report.Patterns)))
			})
			if err != nil {
				return fmt.Errorf("invalid analysis schedule %q: %w", spec, err)
			}
			sched.Start()
			defer sched.Stop()
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("SERVER", "listening", zap.String("addr", addr))
			fmt.Printf("buddy listening on http://%s\n", addr)
			errCh <- srv.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case sig := <-stop:
			a.log.Info("SERVER", "shutting down", zap.String("signal", sig.String()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
