package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Project task board service and terminal client",
	Long: `taskboard keeps the tasks of a project on a board with list and kanban
views. It runs as an HTTP API backed by Azure Tables and Redis, or as a local
terminal board backed by SQLite.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.NewViper(), cfgFile)
		if err != nil {
			return err
		}
		if loaded.Debug {
			log.SetLevel(log.DebugLevel)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml, json or toml)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
