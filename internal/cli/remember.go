package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/engram-oss/engram/internal/agent"
)

var (
	rememberTags     []string
	rememberPriority string
	rememberKind     string
	rememberScope    string
)

var rememberCmd = &cobra.Command{
	Use:   "remember <agent> <text>",
	Short: "Store a memory for an agent",
	Long: `Store a piece of text in an agent's memory.

Examples:
  engram remember assistant "Alice met Bob in Paris in 2023"
  engram remember assistant "The API limit is 100 rps" --kind fact --priority high
  engram remember assistant "Standup moved to 9:30" --tag work --tag schedule
  engram remember assistant "Dentist on Friday" --scope personal`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRemember,
}

func init() {
	rememberCmd.Flags().StringArrayVarP(&rememberTags, "tag", "t", nil, "tag to attach (repeatable)")
	rememberCmd.Flags().StringVarP(&rememberPriority, "priority", "p", "", "priority (low, normal, high, critical)")
	rememberCmd.Flags().StringVarP(&rememberKind, "kind", "k", "", "kind (episodic, fact, conversation)")
	rememberCmd.Flags().StringVarP(&rememberScope, "scope", "s", "", "scope to store into")
}

func runRemember(cmd *cobra.Command, args []string) error {
	agentID := args[0]
	text := strings.Join(args[1:], " ")

	r, done, err := openAgent(agentID, "remember")
	if err != nil {
		return err
	}
	defer done()

	var opts []agent.RememberOption
	if len(rememberTags) > 0 {
		opts = append(opts, agent.WithTags(rememberTags...))
	}
	if rememberPriority != "" {
		opts = append(opts, agent.WithPriority(rememberPriority))
	}
	if rememberKind != "" {
		opts = append(opts, agent.WithKind(rememberKind))
	}

	var id string
	if rememberScope != "" {
		// The scope registry lives in the runtime, so each invocation
		// declares the scope it writes into.
		if err := r.DefineScope(rememberScope, ""); err != nil {
			return err
		}
		id, err = r.RememberIn(rememberScope, text, opts...)
	} else {
		id, err = r.Remember(text, opts...)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Stored %s\n", id)
	return nil
}
