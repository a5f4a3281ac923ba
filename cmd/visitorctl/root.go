package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/api"
	"github.com/mellystark/visitormanagement/internal/app"
	"github.com/mellystark/visitormanagement/internal/database"
	"github.com/mellystark/visitormanagement/pkg/logger"
)

// cli holds state shared by every subcommand.
type cli struct {
	configPath string

	cfg *app.Config
	db  *gorm.DB
	svc *api.Services
}

func newRootCmd() *cobra.Command {
	state := &cli{}

	root := &cobra.Command{
		Use:           "visitorctl",
		Short:         "Visitor management administration tool",
		Long:          `Administer the visitor management database: run migrations, manage administrators and export data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return state.close()
		},
	}

	root.PersistentFlags().StringVar(&state.configPath, "config", "", "config directory or file (default is ./config)")

	root.AddCommand(
		newMigrateCmd(state),
		newAdminCmd(state),
		newExportCmd(state),
		newStatsCmd(state),
	)
	return root
}

func (c *cli) open() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	// Keep CLI output free of informational logs.
	if err := app.ConfigureLogging("error", "console"); err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.ConnectionConfig())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = closeDB(db)
		return fmt.Errorf("migrate database: %w", err)
	}

	location, err := cfg.Stats.Location()
	if err != nil {
		_ = closeDB(db)
		return err
	}

	svc, err := api.NewServices(db, nil, api.ServiceOptions{Location: location})
	if err != nil {
		_ = closeDB(db)
		return err
	}

	c.cfg, c.db, c.svc = cfg, db, svc
	return nil
}

func (c *cli) close() error {
	_ = logger.Sync()
	if c.db == nil {
		return nil
	}
	err := closeDB(c.db)
	c.db = nil
	return err
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func loadConfig(path string) (*app.Config, error) {
	if strings.TrimSpace(path) == "" {
		return app.LoadConfig()
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
	if info.IsDir() {
		return app.LoadConfig(path)
	}
	return app.LoadConfig(filepath.Dir(path))
}
