package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/yatube/backend/internal/router"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/anonto42/yatube/backend/pkg/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(parent context.Context, rt *runtime) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, rt.cfg)
	if err != nil {
		return err
	}

	var verifier firebase.TokenVerifier
	app, err := firebase.InitFirebase(ctx, rt.cfg.FirebaseCredentialsPath)
	switch {
	case errors.Is(err, firebase.ErrNotConfigured):
		rt.log.Info("firebase login disabled")
	case err != nil:
		return err
	default:
		verifier = app
	}

	e, err := router.New(router.Deps{
		Config:   rt.cfg,
		DB:       rt.db,
		Storage:  store,
		Firebase: verifier,
		Logger:   rt.log,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		rt.log.Info("server starting", zap.String("port", rt.cfg.Port), zap.String("env", rt.cfg.Env))
		if err := e.Start(":" + rt.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	rt.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
