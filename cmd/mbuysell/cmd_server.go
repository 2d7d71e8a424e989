package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rssabbir-dev/m-buy-sell-backend/config"
	"github.com/rssabbir-dev/m-buy-sell-backend/internal/server"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/app"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/schedule"
)

// reconcileWindow is how far back the background reconciler looks.
const reconcileWindow = 24 * time.Hour

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background()) //nolint:errcheck

		jobs := schedule.New()
		if every := config.ReconcileInterval(); every > 0 {
			jobs.Every(every).Name("reconcile").WithoutOverlapping().Run(func(ctx context.Context) {
				report, err := a.Orders.Reconcile(ctx, time.Now().Add(-reconcileWindow))
				if err != nil {
					logger.Warn("reconcile run failed", "error", err)
					return
				}
				if report.Repaired > 0 || report.Failed > 0 {
					logger.Info("reconcile run", "scanned", report.Scanned, "repaired", report.Repaired, "conflicts", report.Conflicts, "failed", report.Failed)
				}
			})
		}

		return server.Start(ctx, a.Handler(), server.Options{
			Addr: ":" + config.AppPort(),
			Jobs: jobs,
		})
	},
}

var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range app.RouteTable() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
