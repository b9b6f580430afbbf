package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/storage"
)

var initStorageCmd = &cobra.Command{
	Use:   "init-storage",
	Short: "Create the tasks table and the changes queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateStorage(); err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := storage.CreateTables(ctx, cfg.StorageConnectionString, []string{cfg.TasksTable}); err != nil {
			return err
		}
		if err := storage.CreateQueues(ctx, cfg.StorageConnectionString, []string{cfg.ChangesQueue}); err != nil {
			return err
		}
		log.WithFields(log.Fields{"table": cfg.TasksTable, "queue": cfg.ChangesQueue}).Info("storage initialized")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initStorageCmd)
}
