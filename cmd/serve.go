package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/g-fabiani/blog/internal/database"
	"github.com/g-fabiani/blog/internal/server"
)

const portFlag = "port"

var serveFlags = withConfigFlag(map[string]cobraflags.Flag{
	portFlag: &cobraflags.StringFlag{
		Name:  portFlag,
		Value: "",
		Usage: "Port to listen on, overrides server.port",
	},
})

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		Long: `Serve the blog over HTTP until interrupted.

The schema is migrated and expired sessions are removed before the server starts.`,
		Args: cobra.NoArgs,
		RunE: serveCommand,
	}
	cobraflags.RegisterMap(serveCmd, serveFlags)
	return serveCmd
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveFlags)
	if err != nil {
		return err
	}
	if port := serveFlags[portFlag].GetString(); port != "" {
		cfg.Server.Port = port
	}
	if cfg.LogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := database.CleanupExpiredSessions(ctx, db, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("removed expired sessions", "count", n)
	}

	return server.Run(ctx, cfg, db)
}
