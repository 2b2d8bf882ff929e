package commands

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spear/internal/client"
)

func registerCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := client.LoadKeys(keydir)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				fmt.Println("Generating keypairs...")
				keys, err = client.GenerateKeys(keydir)
				if err != nil {
					return err
				}
			}

			fmt.Println("Registering with server...")
			resp, err := api.Register(username,
				base64.StdEncoding.EncodeToString(keys.PublicKey),
				base64.StdEncoding.EncodeToString(keys.SigningPublicKey))
			if err != nil {
				return err
			}

			fmt.Printf("Registration successful! User ID: %s\n", resp.ID)
			fmt.Printf("Keys saved to: %s\n", keydir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&keydir, "keydir", "k", "", "directory to store keys")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("keydir")
	return cmd
}
