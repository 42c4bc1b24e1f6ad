package cmd

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/g-fabiani/blog/internal/auth"
)

const (
	usernameFlag = "username"
	emailFlag    = "email"
	passwordFlag = "password"
)

var createUserFlags = withConfigFlag(map[string]cobraflags.Flag{
	usernameFlag: &cobraflags.StringFlag{
		Name:  usernameFlag,
		Value: "",
		Usage: "Username, 3 to 20 letters, digits or underscores (required)",
	},
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "",
		Usage: "Email address (required)",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Value: "",
		Usage: "Password, 6 to 32 characters (required)",
	},
})

func newCreateUserCommand() *cobra.Command {
	createUserCmd := &cobra.Command{
		Use:   "createuser",
		Short: "Register a user who can write posts",
		Args:  cobra.NoArgs,
		RunE:  createUserCommand,
	}
	cobraflags.RegisterMap(createUserCmd, createUserFlags)
	return createUserCmd
}

func createUserCommand(cmd *cobra.Command, _ []string) error {
	username := createUserFlags[usernameFlag].GetString()
	email := createUserFlags[emailFlag].GetString()
	password := createUserFlags[passwordFlag].GetString()
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("--%s, --%s and --%s are required", usernameFlag, emailFlag, passwordFlag)
	}

	cfg, err := loadConfig(createUserFlags)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	user, err := auth.NewService(db, cfg.Session.Expiration).RegisterUser(cmd.Context(), email, username, password)
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Username, user.ID)
	return nil
}
