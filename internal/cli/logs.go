package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	logsAgent  string
	logsFollow bool
	logsLines  int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the engram log file",
	Long: `View the log file configured under logging.file.

Examples:
  engram logs                    # Show recent log lines
  engram logs --agent assistant  # Only lines for one agent
  engram logs --follow           # Follow new output`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().StringVarP(&logsAgent, "agent", "a", "", "filter lines by agent id")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "stream appended lines")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "lines of history to print")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	if cfg.Logging.File == "" {
		fmt.Println("No log file configured. Set logging.file in engram.yaml.")
		return nil
	}

	file, err := os.Open(cfg.Logging.File)
	if os.IsNotExist(err) {
		fmt.Println("No logs yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if err := showTail(file); err != nil {
		return err
	}
	if logsFollow {
		return followFile(file)
	}
	return nil
}

func showTail(file *os.File) error {
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !matchesAgent(line) {
			continue
		}
		lines = append(lines, line)
		if len(lines) > logsLines {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

// followFile polls for appended lines from the current offset.
func followFile(file *os.File) error {
	fmt.Println("Following... (Ctrl+C to stop)")
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		if matchesAgent(line) {
			fmt.Print(line)
		}
	}
}

func matchesAgent(line string) bool {
	if logsAgent == "" {
		return true
	}
	return strings.Contains(line, "agent="+logsAgent) ||
		strings.Contains(line, fmt.Sprintf("%q", logsAgent))
}
