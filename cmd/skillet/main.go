// Command skillet selects which skills to inject into an AI assistant's
// context for a given task: it scores skill descriptions against the task,
// resolves conflicts between overlapping skills, and packs the survivors
// into a bounded budget.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/contextforge/skillet/pkg/logger"
	"github.com/contextforge/skillet/pkg/presenter"
	"github.com/contextforge/skillet/pkg/telemetry"
	"github.com/contextforge/skillet/pkg/version"
)

var tracerShutdown func(context.Context) error

func init() {
	viper.SetEnvPrefix("SKILLET")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillet")
	viper.AddConfigPath(".")

	// Config file is optional
	_ = viper.ReadInConfig()

	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("sizer", "chars")
	viper.SetDefault("encoding", "")
}

var rootCmd = &cobra.Command{
	Use:   "skillet",
	Short: "Skill selection and context-injection engine",
	Long: `Skillet decides which skills an AI assistant should load for a task.

Given a pool of SKILL.md documents and a task description, skillet scores
each skill's description against the task, resolves conflicts between
overlapping skills, and greedily packs the winners into a bounded context
budget. The ordered, size-bounded selection is printed for the host to
inject; skillet never injects anything itself.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			return err
		}
		logger.SetLogFormat(viper.GetString("log_format"))

		shutdown, err := telemetry.InitTracer(cmd.Context(), telemetry.Config{
			Enabled:        viper.GetBool("tracing.enabled"),
			ServiceName:    "skillet",
			ServiceVersion: version.Get().Version,
			SamplerType:    viper.GetString("tracing.sampler"),
			SamplerRatio:   viper.GetFloat64("tracing.ratio"),
		})
		if err != nil {
			return err
		}
		tracerShutdown = shutdown
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if tracerShutdown != nil {
			_ = tracerShutdown(cmd.Context())
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().StringSlice("skill-dirs", nil, "Skill directories (doublestar globs allowed, overrides config)")
	rootCmd.PersistentFlags().StringSlice("allow", nil, "Allowlist of skill names; empty allows all")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("skill_dirs", rootCmd.PersistentFlags().Lookup("skill-dirs"))
	viper.BindPFlag("allowlist", rootCmd.PersistentFlags().Lookup("allow"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
