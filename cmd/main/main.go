package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/CTAG07/melodia/pkg/store"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// standaloneAnnotation marks commands that run without loading the config.
const standaloneAnnotation = "standalone"

// app carries the state shared by every subcommand once the config is loaded.
type app struct {
	configPath string
	config     *Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "melodia",
		Short:   "Bigram melody generator",
		Long:    `Builds bigram transition tables from example melodies and samples new melodies from them.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[standaloneAnnotation] == "true" {
				return nil
			}
			return a.setup(cmd)
		},
		// With no subcommand, run the demonstration.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), demoSeed)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{standaloneAnnotation: "true"},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "./config.json", "path to the JSON config file")

	rootCmd.AddCommand(
		newDemoCmd(),
		newTrainCmd(a),
		newGenerateCmd(a),
		newModelsCmd(a),
		newRemoveCmd(a),
		newPruneCmd(a),
		newVocabPruneCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newStatsCmd(a),
	)
	return rootCmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	config, err := LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.config = config
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parseLogLevel(config.LogLevel)}))
	return nil
}

// initDB opens the database with the driver selected at build time, adding a
// busy timeout to the data source.
func initDB(dataSource string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dataSource, "?") {
		sep = "&"
	}
	return sql.Open(driverName, dataSource+sep+busyTimeoutParam)
}

// openStore opens the configured database, sets up the schema, and returns a
// Store along with a function that releases both.
func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	// The data source may carry driver parameters after a '?'.
	dir := filepath.Dir(strings.SplitN(a.config.DatabasePath, "?", 2)[0])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := initDB(a.config.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = store.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup schema: %w", err)
	}

	s, err := store.New(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("error creating model store: %w", err)
	}
	s.SetLogger(a.logger)

	closeFn := func() {
		s.Close()
		if err := db.Close(); err != nil {
			a.logger.Error("Failed to close database", "error", err)
		}
	}
	return s, closeFn, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(newRootCmd().ExecuteContext(ctx))
}
