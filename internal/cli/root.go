// Package cli provides the command-line interface for atrium.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/app"
	"github.com/northgate/atrium/internal/config"
	"github.com/northgate/atrium/internal/logging"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	prefsPath  string
	logLevel   string
}

// NewRootCmd builds the command tree. Running it without a subcommand opens
// the console. Errors are returned, not printed.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "atrium",
		Short: "atrium - live console for the content API",
		Long: `atrium browses and edits the collections behind the CMS: articles,
carousel slides, categories, messages, users and roles. Lists stay in
sync with other sessions through the realtime channel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default ~/.config/atrium/config.toml)")
	flags.StringVar(&g.prefsPath, "prefs", "", "prefs file (default ~/.config/atrium/prefs.toml)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(tuiCmd(g))
	rootCmd.AddCommand(listCmd(g))
	rootCmd.AddCommand(watchCmd(g))
	rootCmd.AddCommand(createCmd(g))
	rootCmd.AddCommand(uploadCmd(g))
	rootCmd.AddCommand(logsCmd(g))
	return rootCmd
}

func tuiCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive console (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
	}
}

func runTUI(cmd *cobra.Command, g *globals) error {
	return app.Run(cmd.Context(), app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		LogLevel:   g.logLevel,
	})
}

// env is what a one-shot subcommand needs: config plus a stderr logger.
type env struct {
	cfg config.Config
	log *zap.Logger
}

func loadEnv(cmd *cobra.Command, g *globals) (env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return env{}, fmt.Errorf("load atrium config: %w", err)
	}
	level := "warn"
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger, err := logging.Console(cmd.ErrOrStderr(), level)
	if err != nil {
		return env{}, err
	}
	return env{cfg: cfg, log: logger}, nil
}
