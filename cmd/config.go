package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhubert/pischat/internal/config"
	"github.com/zhubert/pischat/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints where the config file lives and the values this run would use,
including any --server override.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printConfig(os.Stdout, cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func printConfig(out io.Writer, cfg *config.Config) error {
	locale := cfg.GetLocale()
	reconnect := "off"
	if cfg.ReconnectEnabled() {
		reconnect = fmt.Sprintf("on, give up after %s", cfg.ReconnectMaxElapsed())
	}
	notifications := "off"
	if cfg.GetNotificationsEnabled() {
		notifications = "on"
	}
	theme := cfg.GetTheme()
	if theme == "" {
		theme = "default"
	}

	rows := [][2]string{
		{"config file", cfg.Path()},
		{"data dir", cfg.DataDir()},
		{"log file", logger.Path()},
		{"server", cfg.GetServer()},
		{"request timeout", cfg.RequestTimeout().String()},
		{"ping interval", cfg.PingInterval().String()},
		{"ping timeout", cfg.PingTimeout().String()},
		{"locale", locale.Name},
		{"timezone", cfg.Location().String()},
		{"reconnect", reconnect},
		{"notifications", notifications},
		{"theme", theme},
		{"recent peers", strings.Join(cfg.GetRecentPeers(), ", ")},
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(out, "%-*s  %s\n", width+1, r[0]+":", r[1]); err != nil {
			return err
		}
	}
	return nil
}
