package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhubert/pischat/internal/config"
	"github.com/zhubert/pischat/internal/store"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved login",
	Long: `Removes the user saved by the last successful login, so the next run
starts at the login screen. Recent conversations are forgotten too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runLogout(os.Stdout, cfg)
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the saved login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runWhoami(os.Stdout, cfg)
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogout(out io.Writer, cfg *config.Config) error {
	st, err := store.Open(cfg.DataDir())
	if err != nil {
		return fmt.Errorf("error opening local store: %w", err)
	}
	defer st.Close()

	user, err := st.CurrentUser()
	if err != nil {
		return fmt.Errorf("error reading saved user: %w", err)
	}
	if user == nil {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	if err := st.ClearCurrentUser(); err != nil {
		return fmt.Errorf("error clearing saved user: %w", err)
	}
	cfg.ClearRecentPeers()
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	fmt.Fprintf(out, "Logged out %s.\n", user.Handle())
	return nil
}

func runWhoami(out io.Writer, cfg *config.Config) error {
	st, err := store.Open(cfg.DataDir())
	if err != nil {
		return fmt.Errorf("error opening local store: %w", err)
	}
	defer st.Close()

	user, err := st.CurrentUser()
	if err != nil {
		return fmt.Errorf("error reading saved user: %w", err)
	}
	if user == nil {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", user.DisplayName(), user.Handle())
	fmt.Fprintf(out, "  id:     %s\n", user.ID)
	fmt.Fprintf(out, "  server: %s\n", cfg.GetServer())
	return nil
}
