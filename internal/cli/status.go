package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/engram-oss/engram/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status <agent>",
	Short: "Show agent state and memory stats",
	Long: `Display the agent's lifecycle state, memory count and the metrics
collected during this invocation.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	r, done, err := openAgent(args[0], "status")
	if err != nil {
		return err
	}
	defer done()

	count, err := r.CountMemories()
	if err != nil {
		return err
	}
	st := r.State()

	fmt.Printf("Agent: %s\n", r.ID())
	fmt.Printf("  Description: %s\n", r.Description())
	fmt.Printf("  Status:      %s %s\n", statusIcon(st.Status), st.Status)
	fmt.Printf("  Started:     %s\n", st.StartedAt.Format(time.RFC3339))
	fmt.Printf("  Last active: %s\n", st.LastActive.Format(time.RFC3339))
	fmt.Printf("  Memories:    %d\n", count)

	if scopes := r.Scopes(); len(scopes) > 0 {
		fmt.Printf("  Scopes:      %v\n", scopes)
	}

	fmt.Println("\nMetrics:")
	summary := r.Metrics().GetSummary()
	for _, key := range []string{
		"memories_stored", "memories_recalled", "memories_forgotten",
		"searches_run", "store_errors", "index_entries",
	} {
		if v, ok := summary[key]; ok {
			fmt.Printf("  %-20s %v\n", key, v)
		}
	}
	return nil
}

func statusIcon(s state.Status) string {
	switch s {
	case state.StatusActive:
		return "●"
	case state.StatusIdle:
		return "◐"
	case state.StatusStopped:
		return "✗"
	default:
		return "○"
	}
}
