package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <agent> <memory-id>",
	Short: "Remove a memory",
	Long:  `Remove a memory from the agent's store and search index.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runForget,
}

func runForget(cmd *cobra.Command, args []string) error {
	r, done, err := openAgent(args[0], "forget")
	if err != nil {
		return err
	}
	defer done()

	removed, err := r.Forget(args[1])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Println("Memory not found.")
		return nil
	}

	fmt.Printf("Forgot %s\n", args[1])
	return nil
}
