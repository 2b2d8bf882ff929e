package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or advance replay-protection sessions",
	}
	cmd.AddCommand(sessionGetCmd(), sessionAdvanceCmd())
	return cmd
}

func sessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user1> <user2>",
		Short: "Get or create the session for a pair of users",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := api.GetOrCreateSession(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Session: %s\n", resp.SessionID)
			fmt.Printf("Counters: low=%d high=%d\n", resp.CounterForLow, resp.CounterForHigh)
			fmt.Printf("Rotation threshold: %d\n", resp.RotationThreshold)
			return nil
		},
	}
}

func sessionAdvanceCmd() *cobra.Command {
	var (
		fromUser string
		counter  int64
	)

	cmd := &cobra.Command{
		Use:   "advance <user1> <user2>",
		Short: "Advance the sender's replay counter for a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := api.AdvanceCounter(args[0], args[1], fromUser, counter)
			if err != nil {
				return err
			}
			fmt.Printf("Counter accepted: %d\n", resp.Counter)
			if resp.NeedsRotation {
				fmt.Printf("Key rotation due (threshold %d)\n", resp.RotationThreshold)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fromUser, "from", "", "sender username")
	cmd.Flags().Int64Var(&counter, "counter", 0, "proposed counter value")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("counter")
	return cmd
}
