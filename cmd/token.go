package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type tokenFlags struct {
	config   string
	uid      string
	nickname string
}

func init() {
	tokenEnv := new(tokenFlags)

	var tokenCommand = &cobra.Command{
		Use:   "token -u uid [-n nickname]",
		Short: "Issue a signed auth token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenEnv.uid == "" {
				return errors.New("uid is required")
			}
			a, cleanup, err := openApp(tokenEnv.config, true)
			if err != nil {
				return err
			}
			defer cleanup()

			nickname := tokenEnv.nickname
			if nickname == "" {
				nickname = tokenEnv.uid
			}
			token, err := a.TokenManager.Generate(tokenEnv.uid, nickname, "")
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}

	rootCmd.AddCommand(tokenCommand)
	fs := tokenCommand.Flags()
	fs.StringVarP(&tokenEnv.config, "config", "c", "", "config file")
	fs.StringVarP(&tokenEnv.uid, "uid", "u", "", "user id")
	fs.StringVarP(&tokenEnv.nickname, "nickname", "n", "", "nickname")
}
