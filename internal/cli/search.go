package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/engram-oss/engram/internal/agent"
	"github.com/engram-oss/engram/internal/memory"
)

var (
	searchLimit int
	searchScope string
)

var searchCmd = &cobra.Command{
	Use:   "search <agent> <query>",
	Short: "Search an agent's memories",
	Long: `Search memories by substring, ranked by relevance and recency.

Examples:
  engram search assistant Paris
  engram search assistant "tech company" --limit 3
  engram search assistant dentist --scope personal`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum results (default from config)")
	searchCmd.Flags().StringVarP(&searchScope, "scope", "s", "", "restrict the search to a scope")
}

func runSearch(cmd *cobra.Command, args []string) error {
	agentID := args[0]
	query := strings.Join(args[1:], " ")

	r, done, err := openAgent(agentID, "search")
	if err != nil {
		return err
	}
	defer done()

	var opts []agent.SearchOption
	if searchLimit > 0 {
		opts = append(opts, agent.WithLimit(searchLimit))
	}

	var results []*memory.Record
	if searchScope != "" {
		if err := r.DefineScope(searchScope, ""); err != nil {
			return err
		}
		results, err = r.SearchIn(searchScope, query, opts...)
	} else {
		results, err = r.SearchMemories(query, opts...)
	}
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No memories found.")
		return nil
	}

	fmt.Printf("Found %d memories:\n\n", len(results))
	for _, rec := range results {
		strength, level := r.Relevance(rec)
		fmt.Printf("%s %s  [%s %.2f]\n", relevanceIcon(level), rec.ID, level, strength)
		fmt.Printf("   %s\n", rec.Content)
		fmt.Printf("   Created: %s  Accessed: %d times\n",
			rec.CreatedAt.Format(time.RFC3339), rec.AccessCount)
		if tags := rec.Tags(); len(tags) > 0 {
			fmt.Printf("   Tags: %s\n", strings.Join(tags, ", "))
		}
		fmt.Println()
	}
	return nil
}

func relevanceIcon(level string) string {
	switch level {
	case "high":
		return "●"
	case "medium":
		return "◐"
	case "low":
		return "○"
	default:
		return "◌"
	}
}
