package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"spear/internal/client"
)

func sendCmd() *cobra.Command {
	var (
		from    string
		to      string
		message string
		counter int64
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Encrypt, sign and send a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := client.LoadKeys(keydir)
			if err != nil {
				return err
			}

			fmt.Printf("Sending message to %s...\n", to)
			if _, err := api.Send(from, to, keys, []byte(message), counter); err != nil {
				return err
			}
			fmt.Println("Message sent successfully!")
			return nil
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "your username")
	cmd.Flags().StringVarP(&to, "to", "t", "", "recipient username")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message to send")
	cmd.Flags().StringVarP(&keydir, "keydir", "k", "", "your key directory")
	cmd.Flags().Int64Var(&counter, "counter", 1, "message counter")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("keydir")
	return cmd
}
