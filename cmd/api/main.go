// Package main is the lpo-tracker API binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	Version   = "1.0.0"
	BuildTime = "dev"
	appName   = "lpo-tracker"
)

// @title           LPO Tracker API
// @version         1.0
// @description     Requisitions, approvals and Local Purchase Orders.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	storage    string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Procurement tracker API",
		Long: `lpo-tracker serves the requisition and Local Purchase Order workflow:
users raise requisitions, administrators approve or reject them, issue LPOs
to suppliers for approved requisitions and track delivery.

Running without a subcommand is the same as "serve".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&flags.storage, "storage", "", "Storage backend (postgres, memory); overrides STORAGE")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), flags)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context(), flags)
			},
		},
		seedCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func seedCmd(flags *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the admin account and catalog data",
		Long:  "Seed inserts users, products and suppliers from a YAML catalog. Existing rows are left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seedDatabase(cmd.Context(), *flags, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed catalog (YAML); the built-in catalog when empty")
	return cmd
}
