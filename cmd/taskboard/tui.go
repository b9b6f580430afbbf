package main

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/board"
	"taskboard/outbox"
	"taskboard/storage/sqlite"
	"taskboard/tui"
)

var (
	tuiProject string
	tuiDBPath  string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal board of a project",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiProject, "project", "p", "", "project id")
	tuiCmd.Flags().StringVar(&tuiDBPath, "db", "", "sqlite database (default $XDG_DATA_HOME/taskboard/taskboard.db)")
	_ = tuiCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(tuiCmd)
}

func localUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := sqlite.Open(tuiDBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// The terminal owns stdout; logs go to a file only in debug mode.
	logger := log.New()
	logger.SetOutput(io.Discard)
	if cfg.Debug {
		f, err := os.OpenFile("taskboard-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger.SetOutput(f)
		logger.SetLevel(log.DebugLevel)
	}

	box := outbox.New(outbox.Config{Workers: 1, Timeout: 5 * time.Second, HandoffTimeout: time.Second}, db, logger)
	defer box.Shutdown()

	b := board.New(board.Options{
		UserID:      localUser(),
		Preferences: db,
		Loader:      db,
		Sink:        box,
		Logger:      logger,
	})
	if err := b.Open(ctx, tuiProject); err != nil {
		return err
	}

	_, err = tea.NewProgram(tui.New(ctx, b), tea.WithAltScreen()).Run()
	return err
}
