// Command costloader ingests CSV cost datasets from a directory into the
// database, using the same validation and upsert path as the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudunify/cloudunify/internal/clock"
	"github.com/cloudunify/cloudunify/internal/config"
	ingestrepo "github.com/cloudunify/cloudunify/internal/ingest/repository"
	ingestsvc "github.com/cloudunify/cloudunify/internal/ingest/service"
	"github.com/cloudunify/cloudunify/internal/loader"
	"github.com/cloudunify/cloudunify/internal/logger"
	orgrepo "github.com/cloudunify/cloudunify/internal/organization/repository"
	"github.com/cloudunify/cloudunify/pkg/db"
	"github.com/spf13/cobra"
)

func main() {
	var (
		inputDir         string
		orgName          string
		orgSlug          string
		accountNameAWS   string
		accountNameAzure string
		accountNameGCP   string
		createMissing    bool
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:          "costloader",
		Short:        "Load CSV cost datasets into the cost visibility database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			conn, err := db.Open(cfg, log)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if sqlDB, dbErr := conn.DB(); dbErr == nil {
				defer sqlDB.Close()
			}

			svc := ingestsvc.New(ingestsvc.Params{
				DB:    conn,
				Log:   log,
				Clock: clock.SystemClock{},
				Repo:  ingestrepo.Provide(),
			})

			run, err := loader.New(conn, log, svc, orgrepo.Provide()).Run(cmd.Context(), loader.Config{
				InputDir: inputDir,
				OrgName:  orgName,
				OrgSlug:  orgSlug,
				AccountNames: map[string]string{
					"aws":   accountNameAWS,
					"azure": accountNameAzure,
					"gcp":   accountNameGCP,
				},
				CreateMissing: createMissing,
				DryRun:        dryRun,
			})
			if err != nil {
				return err
			}

			// Partial file failures are reported in the summary; only
			// configuration errors fail the command.
			fmt.Print(run.Render())
			return nil
		},
	}

	cmd.Flags().StringVar(&inputDir, "input-dir", ".", "directory containing *.csv dataset files")
	cmd.Flags().StringVar(&orgName, "org-name", "CloudUnify Demo", "organization display name")
	cmd.Flags().StringVar(&orgSlug, "org-slug", "cloudunify-demo", "organization slug")
	cmd.Flags().StringVar(&accountNameAWS, "account-name-aws", "AWS Main", "display name for the AWS cloud account")
	cmd.Flags().StringVar(&accountNameAzure, "account-name-azure", "Azure Main", "display name for the Azure cloud account")
	cmd.Flags().StringVar(&accountNameGCP, "account-name-gcp", "GCP Main", "display name for the GCP cloud account")
	cmd.Flags().BoolVar(&createMissing, "create-missing", false, "create the organization and cloud accounts when absent")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and count without writing rows")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
