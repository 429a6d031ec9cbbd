package server

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	xhttp "TradeSim/pkg/http"
	applogger "TradeSim/pkg/logger"
)

// App encapsulates the application lifecycle.
type App struct {
	httpServer *xhttp.Server
	l          *applogger.Logger
}

// New creates a new App.
func New(httpServer *xhttp.Server, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{httpServer: httpServer, l: l}
}

// Run serves HTTP until ctx is canceled or the listener fails, then shuts the
// server down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.httpServer == nil {
		return fmt.Errorf("app not initialized")
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(a.httpServer.ListenAndServe)
	group.Go(func() error {
		<-ctx.Done()
		a.l.Info("shutting down")
		// ctx is already canceled here; Stop applies its own deadline.
		return a.httpServer.Stop(context.WithoutCancel(ctx))
	})

	if err := group.Wait(); err != nil {
		return err
	}
	a.l.Info("shutdown complete")
	return nil
}
