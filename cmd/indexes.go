/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/bloghub/apiserver/config"
	"github.com/bloghub/apiserver/internal/db"
	"github.com/spf13/cobra"
)

// indexesCmd represents the indexes command.
var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Manage database indexes",
}

var indexesEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the unique indexes the application relies on",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		database, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		defer func() {
			_ = database.Client().Disconnect(cmd.Context())
		}()

		if err := db.EnsureIndexes(cmd.Context(), database); err != nil {
			return fmt.Errorf("ensure indexes failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
	indexesCmd.AddCommand(indexesEnsureCmd)
}
