package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/engram-oss/engram/internal/memory"
)

var getCmd = &cobra.Command{
	Use:   "get <agent> <memory-id>",
	Short: "Fetch one memory by id",
	Long: `Fetch a single memory and show its bookkeeping. Fetching counts as an
access and refreshes the memory's retention.`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	r, done, err := openAgent(args[0], "get")
	if err != nil {
		return err
	}
	defer done()

	rec, err := r.GetMemory(args[1])
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("Memory not found.")
		return nil
	}

	strength, level := r.Relevance(rec)

	fmt.Printf("ID:        %s\n", rec.ID)
	fmt.Printf("Content:   %s\n", rec.Content)
	fmt.Printf("Created:   %s\n", rec.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Accessed:  %d times (last %s)\n",
		rec.AccessCount, rec.LastAccessed.Format(time.RFC3339))
	fmt.Printf("Relevance: %s %s (%.2f)\n", relevanceIcon(level), level, strength)
	if kind := rec.Kind(); kind != "" {
		fmt.Printf("Kind:      %s\n", kind)
	}
	fmt.Printf("Priority:  %s\n", rec.Priority())
	if tags := rec.Tags(); len(tags) > 0 {
		fmt.Printf("Tags:      %s\n", strings.Join(tags, ", "))
	}
	if extras := extraProperties(rec); len(extras) > 0 {
		fmt.Println("Properties:")
		for _, k := range extras {
			fmt.Printf("  %s: %v\n", k, rec.Properties[k])
		}
	}
	return nil
}

// extraProperties returns the non-reserved property keys, sorted.
func extraProperties(rec *memory.Record) []string {
	var keys []string
	for k := range rec.Properties {
		switch k {
		case memory.PropTags, memory.PropPriority, memory.PropKind:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
