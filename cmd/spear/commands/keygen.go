package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"spear/internal/client"
)

func keygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate encryption and signing key pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Generating keypairs...")
			if _, err := client.GenerateKeys(keydir); err != nil {
				return err
			}
			fmt.Printf("Keys saved to: %s\n", keydir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&keydir, "keydir", "k", "", "directory to store keys")
	_ = cmd.MarkFlagRequired("keydir")
	return cmd
}
