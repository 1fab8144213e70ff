package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/qa-forum/backend/internal/client"
)

var checkURL string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify connectivity to the store, or to a running server with --url",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkURL, "url", "", "base URL of a running API to probe instead of the store")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	var stats map[string]any
	if checkURL != "" {
		got, err := client.New(checkURL, "").Health(ctx)
		if err != nil {
			return err
		}
		stats = got
	} else {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg, log, false)
		if err != nil {
			return err
		}
		defer st.Close()
		stats = map[string]any{}
		for k, v := range st.Health(ctx) {
			stats[k] = v
		}
	}

	for k, v := range stats {
		cmd.Printf("%s: %v\n", k, v)
	}
	if stats["status"] != "up" {
		return errors.New("backend is not healthy")
	}
	cmd.Println("✅ Connection OK")
	return nil
}

