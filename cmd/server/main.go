package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/koe-app/koe/internal/config"
	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/pkg/logger"
	"github.com/koe-app/koe/web"
	"github.com/spf13/cobra"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "koe",
	Short: "Koe collects testimonials and serves them to embeddable widgets",
	Long: `Koe runs the testimonial API, the hosted collection forms and the
embeddable widget from a single binary.

  koe serve            Start the HTTP server (default)
  koe migrate          Apply database migrations and exit
  koe widget-budget    Check widget.js against its gzipped size budget`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := models.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if err := models.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info().Str("driver", cfg.Database.Driver).Msg("Migrations applied")
		return nil
	},
}

var widgetBudgetCmd = &cobra.Command{
	Use:   "widget-budget",
	Short: "Check widget.js against its gzipped size budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := web.CheckBudget()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "widget.js: %d / %d bytes gzipped\n", size, web.WidgetBudget)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", os.Getenv("CONFIG_PATH"), "Path to config.yaml (default: CONFIG_PATH or ./config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, widgetBudgetCmd)
}

// loadConfig reads .env when present, then the YAML file and environment.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
