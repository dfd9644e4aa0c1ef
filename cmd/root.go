package cmd

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/zhubert/pischat/internal/app"
	"github.com/zhubert/pischat/internal/config"
	"github.com/zhubert/pischat/internal/coordinator"
	"github.com/zhubert/pischat/internal/directory"
	"github.com/zhubert/pischat/internal/logger"
	"github.com/zhubert/pischat/internal/notification"
	"github.com/zhubert/pischat/internal/pipeline"
	"github.com/zhubert/pischat/internal/socket"
	"github.com/zhubert/pischat/internal/store"
	"github.com/zhubert/pischat/internal/timefmt"
)

var (
	debugMode             bool
	quietMode             bool
	serverFlag            string
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "pischat",
	Short: "Two-party terminal chat",
	Long: `pischat is a terminal chat client. Log in or register, pick a contact,
and talk over a live connection to the chat server.`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Reduce logging to info level only")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Chat server address for this run (host[:port] or URL)")
}

func initConfig() {
	if quietMode {
		logger.SetDebug(false)
	} else if debugMode {
		logger.SetDebug(true)
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("pischat %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("pischat %s\n", version)
}

// loadConfig reads the config file and applies the --server override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if serverFlag != "" {
		if err := cfg.OverrideServer(serverFlag); err != nil {
			return nil, fmt.Errorf("invalid --server: %w", err)
		}
	}
	return cfg, nil
}

// buildDeps wires the directory client, local store and conversation
// coordinator from cfg.
func buildDeps(cfg *config.Config) (app.Deps, error) {
	dir, err := directory.New(cfg.GetServer(), directory.WithTimeout(cfg.RequestTimeout()))
	if err != nil {
		return app.Deps{}, fmt.Errorf("error creating directory client: %w", err)
	}

	st, err := store.Open(cfg.DataDir())
	if err != nil {
		return app.Deps{}, fmt.Errorf("error opening local store: %w", err)
	}

	dialer := socket.NewDialer(cfg.GetServer(), socket.Timeouts{
		PingInterval:   cfg.PingInterval(),
		PingTimeout:    cfg.PingTimeout(),
		ReceiveTimeout: cfg.PingTimeout(),
	})
	formatter := timefmt.New(cfg.Location(), timefmt.WithLocale(cfg.GetLocale()))

	opts := []coordinator.Option{
		coordinator.WithNotifier(notification.NewDesktop(cfg.GetNotificationsEnabled)),
	}
	if cfg.ReconnectEnabled() {
		opts = append(opts, coordinator.WithReconnect(coordinator.DefaultReconnectPolicy(cfg.ReconnectMaxElapsed())))
	}
	coord := coordinator.New(dialer, pipeline.New(formatter), opts...)

	return app.Deps{Directory: dir, Store: st, Conversations: coord}, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Ensure logger is closed on exit
	defer logger.Close()
	logger.Info("pischat %s starting, server %s", version, cfg.GetServer())

	deps, err := buildDeps(cfg)
	if err != nil {
		return err
	}

	m := app.New(cfg, version, deps)
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()
	p := tea.NewProgram(m)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}
