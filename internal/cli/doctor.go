package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/ident"
	"github.com/engram-oss/engram/internal/memory"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and configuration",
	Long:  "Validate that the configuration parses and the storage backend is usable.",
	RunE:  runDoctor,
}

// doctorReport prints one aligned line per check and remembers whether
// anything failed.
type doctorReport struct {
	failed bool
}

func (r *doctorReport) pass(label, detail string) {
	fmt.Printf("  %-10s %s ✓\n", label+":", detail)
}

func (r *doctorReport) fail(label, detail, hint string) {
	r.failed = true
	fmt.Printf("  %-10s %s ✗\n", label+":", detail)
	if hint != "" {
		fmt.Printf("    → %s\n", hint)
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("engram doctor — checking your environment")
	fmt.Println()

	r := &doctorReport{}
	r.pass("Go", runtime.Version())
	r.pass("Platform", runtime.GOOS+"/"+runtime.GOARCH)

	cfg, err := loadProjectConfig()
	if err != nil {
		r.fail("Config", "invalid", err.Error())
	} else {
		r.pass("Config", fmt.Sprintf("%s v%s", cfg.Name, cfg.Version))
		checkStore(r, cfg)
		checkLogFile(r, cfg)
	}

	fmt.Println()
	if r.failed {
		fmt.Println("Some checks failed, see above.")
	} else {
		fmt.Println("Everything looks good.")
	}
	return nil
}

// checkStore opens and drops a scratch store to prove the backend works.
func checkStore(r *doctorReport, cfg *config.Config) {
	r.pass("Storage", fmt.Sprintf("%s (%s)", cfg.Storage.Driver, cfg.Storage.DataDir))

	probeDir := filepath.Join(cfg.Storage.DataDir, ".doctor")
	store, err := memory.Open(cfg.Storage.Driver,
		filepath.Join(probeDir, "memory.db"), ident.UUIDGenerator{}, ident.SystemClock{})
	if err != nil {
		r.fail("Store", "cannot open", err.Error())
		return
	}
	store.Close()
	os.RemoveAll(probeDir)
	r.pass("Store", "writable")
}

func checkLogFile(r *doctorReport, cfg *config.Config) {
	if cfg.Logging.File == "" {
		return
	}
	f, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		r.fail("Log file", cfg.Logging.File, "not writable: "+err.Error())
		return
	}
	f.Close()
	r.pass("Log file", cfg.Logging.File)
}
