package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/houseprice/config"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
	"github.com/YuminosukeSato/houseprice/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and prediction API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// serve runs the HTTP server until ctx is canceled, then shuts it down
// within the configured timeout.
func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := log.GetLoggerWithName("serve")

	reporter, err := errors.NewSentryReporter(cfg.SentryDSN, cfg.Environment, Version)
	if err != nil {
		return err
	}
	defer reporter.Flush(2 * time.Second)

	adapter := a.adapter()
	// モデルはリクエスト毎に読み込むので、起動時の失敗は警告に留める
	if info, err := adapter.Info(ctx); err != nil {
		logger.Warn("model is not loadable yet", log.ModelPathKey, cfg.ModelPath, log.ErrorKey, err.Error())
	} else {
		logger.Info("model available",
			log.ModelPathKey, info.Path,
			log.ModelObjectiveKey, info.Objective,
			log.ModelTreesKey, info.NumTrees,
			log.FeaturesKey, info.NumFeatures)
	}

	srv, err := web.NewServer(cfg, adapter,
		web.WithLogger(log.GetLoggerWithName("web")),
		web.WithReporter(reporter))
	if err != nil {
		return err
	}
	httpSrv := srv.HTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpSrv, cfg, logger)
	})
	return g.Wait()
}

func shutdown(srv *http.Server, cfg *config.Config, logger log.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
