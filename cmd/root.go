// Package cmd is the command line of the blog.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/g-fabiani/blog/config"
	"github.com/g-fabiani/blog/internal/database"
)

const configFlag = "config"

// withConfigFlag adds the --config flag shared by every command to flags.
func withConfigFlag(flags map[string]cobraflags.Flag) map[string]cobraflags.Flag {
	flags[configFlag] = &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a config file (yaml, toml or json); BLOG_* environment variables override it",
	}
	return flags
}

// NewRootCommand builds the blog command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "blog",
		Short: "A small multi-author blog",
		Long: `A small multi-author blog with drafts, scheduled posts, tags and an RSS feed.

Examples:
  blog migrate                                  # Create or upgrade the tables
  blog createuser --username ada --email ada@example.com --password s3cret!
  blog serve --config blog.yaml                 # Serve on the configured port
  blog publish 3 4 5                            # Publish posts 3, 4 and 5 now`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newCreateUserCommand())
	root.AddCommand(newPublishCommand())
	return root
}

// Execute runs the command line and exits with status 1 on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config named by flags and installs the default logger.
func loadConfig(flags map[string]cobraflags.Flag) (*config.Config, error) {
	cfg, err := config.Load(flags[configFlag].GetString())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg))
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openDatabase connects and brings the schema up to date.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("error migrating database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		slog.Error("failed to close database connection", "error", err)
	}
}
