package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"spear/internal/client"
)

func receiveCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Fetch, verify and decrypt your pending messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := client.LoadKeys(keydir)
			if err != nil {
				return err
			}

			fmt.Println("Fetching messages...")
			messages, err := api.Receive(username, keys)
			if len(messages) == 0 && err == nil {
				fmt.Println("No new messages")
				return nil
			}

			for _, msg := range messages {
				fmt.Printf("--- Message from %s ---\n", msg.From)
				if msg.Rejected {
					fmt.Println("WARNING: Invalid signature!")
					continue
				}
				fmt.Printf("Message: %s\n", msg.Plaintext)
				fmt.Printf("Timestamp: %s\n", msg.CreatedAt)
				fmt.Printf("Counter: %d\n", msg.Counter)
				fmt.Println()
			}
			if err != nil {
				return err
			}

			fmt.Println("All messages processed")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "your username")
	cmd.Flags().StringVarP(&keydir, "keydir", "k", "", "your key directory")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("keydir")
	return cmd
}
