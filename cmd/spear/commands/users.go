package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := api.ListUsers()
			if err != nil {
				return err
			}
			for _, u := range resp.Users {
				fmt.Printf("%s\t%s\t%s\n", u.ID, u.Username, u.CreatedAt)
			}
			return nil
		},
	}
}
