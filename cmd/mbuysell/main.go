// Command mbuysell runs the marketplace API and its maintenance tasks.
//
//	mbuysell serve                  start the HTTP server
//	mbuysell migrate                create MongoDB indexes
//	mbuysell reconcile --since 72h  repair orders left unsettled by a failed payment
//	mbuysell promote-admin <uid>    grant the admin role
//	mbuysell route:list             print the route table
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "mbuysell",
	Short:         "m-buy-sell marketplace API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(promoteAdminCmd)
}
