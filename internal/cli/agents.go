package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List agents with stored memories",
	Long:  `List the agent namespaces found under the configured data directory.`,
	RunE:  runAgents,
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(cfg.Storage.DataDir)
	if os.IsNotExist(err) {
		fmt.Println("No agents found. Store a memory with 'engram remember' first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read data directory: %w", err)
	}

	fmt.Println("Agents:")
	fmt.Println("-------")

	found := false
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(cfg.Storage.DataDir, entry.Name(), "memory.db"))
		if err != nil {
			continue
		}
		found = true
		fmt.Printf("  %s  (%s)\n", entry.Name(), formatSize(info.Size()))
	}
	if !found {
		fmt.Println("  (none)")
	}
	return nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
