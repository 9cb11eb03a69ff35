package root

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"habitquest/internal/config"
	"habitquest/internal/reminder"
	"habitquest/internal/ui"
)

func newRunCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run in the foreground: reminders, backups and metrics",
		Long: `Run keeps HabitQuest alive in the foreground. Reminders are printed as they
fire, periodic backups are taken, and the config file (if any) is watched so
reminder settings apply without a restart. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metricsAddr == "" {
				metricsAddr = cfg.MetricsAddr
			}
			out := cmd.OutOrStdout()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			a, cleanup, err := openApp(cmd.Context(), openOptions{
				registerer: registry,
				notify: func(n reminder.Notification) {
					fmt.Fprintln(out, ui.Notification(n))
				},
			})
			if err != nil {
				return err
			}
			defer cleanup()

			a.StartReminders()
			logger.Info("running", zap.Stringer("loaded_from", a.LoadSource))

			g, ctx := errgroup.WithContext(cmd.Context())
			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           metricsMux(registry),
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					logger.Info("serving metrics", zap.String("addr", metricsAddr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("metrics server: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}
			if path := config.ResolvePath(configPath); path != "" {
				g.Go(func() error {
					return config.Watch(ctx, path, logger, func(c *config.Config) {
						a.ApplyReminderConfig(c.Reminders)
					})
				})
			}
			g.Go(func() error {
				<-ctx.Done()
				return nil
			})

			fmt.Fprintln(out, ui.Heading(ui.IconBell, "HabitQuest is running (Ctrl-C to stop)"))
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address (e.g. :9464)")

	return cmd
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
