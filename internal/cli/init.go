package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/engram-oss/engram/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize an engram project",
	Long: `Create an engram.yaml, the memory data directory and a .gitignore
in the target directory (default: current directory).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing engram.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}

	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	if err := createProjectConfig(configPath); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, "data", "memory"), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := createGitignore(dir); err != nil {
		return err
	}

	fmt.Printf("Initialized engram project in %s\n", dir)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Adjust storage and lifecycle settings in engram.yaml")
	fmt.Println("  2. Store a first memory: engram remember assistant \"hello\"")
	fmt.Println("  3. Search it back: engram search assistant hello")

	return nil
}

func createProjectConfig(path string) error {
	content := `# engram.yaml - Agent memory configuration
name: my-project
version: "1.0"

# Memory storage
storage:
  driver: sqlite            # sqlite | memory
  data_dir: ./data/memory

# Logging
logging:
  level: info
  format: text              # text | json
  # file: ./engram.log

# Search
search:
  default_limit: 10

# Forgetting curve
lifecycle:
  decay_enabled: true
  recency_decay_hours: 168
  access_count_weight: 0.1
  emotional_weight_multiplier: 1.5
  base_decay_rate: 0.01
  thresholds:
    high: 0.7
    medium: 0.4
    low: 0.1

# Idle tracking (empty disables)
agent:
  idle_timeout: ""

# Metrics export (JSONL, empty disables)
metrics:
  path: ""

# Lifecycle hooks (log | shell | webhook)
hooks:
  enabled: false
  hooks: []
  # - name: notify
  #   type: webhook
  #   url: https://example.com/hook
  #   events: [memory.stored, agent.stopped]
`
	return os.WriteFile(path, []byte(content), 0644)
}

func createGitignore(dir string) error {
	content := `# engram
data/memory/
*.db
engram.log

# Secrets
*.env
.env.*

# OS
.DS_Store
Thumbs.db
`
	return os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(content), 0644)
}
