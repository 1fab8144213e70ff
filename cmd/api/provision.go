package main

import (
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/database"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create collections, indexes, constraints and the attachment bucket",
	Long: `Provision brings the configured backend up to the current schema.
It is safe to run repeatedly.`,
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := database.Provision(ctx, cfg.Database, log); err != nil {
			return err
		}
	case config.DriverMongo:
		st, err := openStore(ctx, cfg, log, true)
		if err != nil {
			return err
		}
		_ = st.Close()
	default:
		log.Info("nothing to provision for driver", "driver", cfg.Store.Driver)
	}

	if _, err := openFiles(ctx, cfg); err != nil {
		return err
	}
	log.Info("provisioning complete", "driver", cfg.Store.Driver, "bucket", cfg.Files.BucketID)
	cmd.Println("✅ Provisioning complete")
	return nil
}
