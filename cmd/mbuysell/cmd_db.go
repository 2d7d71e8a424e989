package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/config"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/app"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the MongoDB indexes the stores rely on",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := database.Connect(ctx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background()) //nolint:errcheck

		fmt.Println("Ensuring indexes…")
		if err := repositories.EnsureIndexes(ctx, database.DB); err != nil {
			return err
		}
		fmt.Println("Indexes are up to date.")
		return nil
	},
}

var reconcileSince time.Duration

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Settle orders and products for payments that were recorded but not applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background()) //nolint:errcheck

		report, err := a.Orders.Reconcile(ctx, time.Now().Add(-reconcileSince))
		fmt.Printf("scanned %d payments, repaired %d, conflicts %d, failed %d\n",
			report.Scanned, report.Repaired, report.Conflicts, report.Failed)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d payments could not be settled; see the log", report.Failed)
		}
		return nil
	},
}

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin <uid>",
	Short: "Grant the admin role to an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background()) //nolint:errcheck

		if err := a.Users.PromoteAdmin(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s is now an admin\n", args[0])
		return nil
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileSince, "since", 24*time.Hour, "how far back to scan payments")
}
