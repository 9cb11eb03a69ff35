package root

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"habitquest/internal/app"
	"habitquest/internal/reminder"
)

const closeTimeout = 10 * time.Second

type openOptions struct {
	registerer prometheus.Registerer
	notify     func(reminder.Notification)
}

// openApp builds the host from the loaded config. The cleanup flushes
// pending writes and closes the store.
func openApp(ctx context.Context, opts openOptions) (*app.App, func(), error) {
	a, err := app.Open(ctx, app.Options{
		Config:     cfg,
		Logger:     logger,
		Registerer: opts.registerer,
		Notify:     opts.notify,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := a.Close(ctx); err != nil {
			logger.Error("close failed; recent changes may not be saved", zap.Error(err))
		}
	}
	return a, cleanup, nil
}
