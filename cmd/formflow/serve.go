package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/internal/metrics"
	"github.com/goliatone/go-formflow/internal/server"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/model"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(flags *rootFlags) *cobra.Command {
	var listen, dir, rendererName string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve wizard sessions over HTTP",
		Long: `Serve loads every definition under the definitions directory and exposes
them as wizard sessions. Pages are rendered server side; submissions go to the
configured backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			if listen != "" {
				a.cfg.Listen = listen
			}
			if dir != "" {
				a.cfg.Definitions.Dir = dir
			}

			store, err := definition.LoadDir(a.cfg.Definitions.Dir)
			if err != nil {
				return err
			}
			themeCfg, err := a.resolveTheme("", "")
			if err != nil {
				return err
			}
			registry, err := renderers(a.logger)
			if err != nil {
				return err
			}

			promRegistry := prometheus.NewRegistry()
			promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(metrics.WithRegistry(promRegistry))

			srv, err := server.New(store, a.client(),
				server.WithLogger(a.logger),
				server.WithMetrics(m, promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})),
				server.WithTheme(themeCfg),
				server.WithRenderers(registry, rendererName),
				server.WithStrictWidgets(a.cfg.Render.StrictWidgets),
				server.WithCSRF(a.cfg.Security.CSRFField),
				server.WithDecorators(model.FillLabels),
			)
			if err != nil {
				return err
			}
			defer srv.Close()

			httpServer := &http.Server{
				Addr:              a.cfg.Listen,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening",
					zap.String("addr", a.cfg.Listen),
					zap.Int("definitions", len(store.List())),
					zap.String("backend", a.cfg.Backend.BaseURL),
				)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	cmd.Flags().StringVarP(&dir, "definitions", "d", "", "definitions directory (overrides config)")
	cmd.Flags().StringVar(&rendererName, "renderer", "html", "page renderer: html or text")
	return cmd
}
