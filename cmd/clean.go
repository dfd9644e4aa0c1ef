package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhubert/pischat/internal/config"
	"github.com/zhubert/pischat/internal/logger"
	"github.com/zhubert/pischat/internal/store"
)

var skipConfirm bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the local database, recent conversations and log files",
	Long: `Deletes the local user database, forgets recent conversations and
removes log files. Settings such as the server address and theme are kept.

It will prompt for confirmation before proceeding unless the --yes flag is used.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return runCleanWithReader(os.Stdin, os.Stdout, cfg)
}

// runCleanWithReader allows injecting input and output for testing
func runCleanWithReader(input io.Reader, out io.Writer, cfg *config.Config) error {
	dbPath := filepath.Join(cfg.DataDir(), store.FileName)
	_, statErr := os.Stat(dbPath)
	hasDB := statErr == nil
	recent := len(cfg.GetRecentPeers())

	if !hasDB && recent == 0 {
		fmt.Fprintln(out, "Nothing to clean besides logs.")
	} else {
		fmt.Fprintln(out, "This will remove:")
		if hasDB {
			fmt.Fprintf(out, "  - %s\n", dbPath)
		}
		if recent > 0 {
			fmt.Fprintf(out, "  - %d recent conversation(s)\n", recent)
		}
	}
	fmt.Fprintln(out, "  - log files")

	if !skipConfirm && !confirm(input, out, "Proceed?") {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	if hasDB {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("error removing %s: %w", dbPath, err)
		}
	}
	if recent > 0 {
		cfg.ClearRecentPeers()
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
	}

	logsCleared, err := logger.ClearLogs()
	if err != nil {
		fmt.Fprintf(out, "Warning: error clearing logs: %v\n", err)
	}
	if logsCleared > 0 {
		fmt.Fprintf(out, "Removed %d log file(s).\n", logsCleared)
	}
	fmt.Fprintln(out, "Done.")
	return nil
}

// confirm prompts the user and returns true if they answer yes
func confirm(input io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(input)
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
