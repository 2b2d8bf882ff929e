package commands

import (
	"github.com/spf13/cobra"

	"spear/internal/client"
	"spear/internal/config"
)

var (
	serverURL string
	keydir    string

	api *client.Client
)

func Execute() error {
	root := &cobra.Command{
		Use:   "spear",
		Short: "Secure messaging CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			api = client.New(serverURL)
		},
	}

	root.PersistentFlags().StringVar(&serverURL, "server", config.ServerURL(),
		"server base URL (env SPEAR_SERVER)")

	root.AddCommand(keygenCmd(), registerCmd(), sendCmd(), receiveCmd(), usersCmd(), sessionCmd())
	return root.Execute()
}
