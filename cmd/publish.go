package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/g-fabiani/blog/internal/database"
)

var publishFlags = withConfigFlag(map[string]cobraflags.Flag{})

func newPublishCommand() *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish ID...",
		Short: "Publish the given posts now",
		Long: `Publish the given posts now.

Posts that are already published keep their publication date and are reported
as skipped. Drafts and scheduled posts are published immediately.`,
		Args: cobra.MinimumNArgs(1),
		RunE: publishCommand,
	}
	cobraflags.RegisterMap(publishCmd, publishFlags)
	return publishCmd
}

func publishCommand(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(publishFlags)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	published, skipped, err := database.NewPostStore(db).PublishMany(cmd.Context(), ids, time.Now())
	if err != nil {
		return fmt.Errorf("error publishing posts: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Published %d post(s): %v\n", len(published), published)
	if len(skipped) > 0 {
		fmt.Fprintf(out, "Skipped %d post(s), already published: %v\n", len(skipped), skipped)
	}
	return nil
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid post id %q", arg)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
