package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/contextforge/skillet/pkg/engine"
	"github.com/contextforge/skillet/pkg/telemetry"
)

type SelectConfig struct {
	Budget     int
	Capability string
	Format     string
	Explain    bool
}

func NewSelectConfig() *SelectConfig {
	return &SelectConfig{
		Budget: 12000,
		Format: "text",
	}
}

var selectCmd = &cobra.Command{
	Use:   "select <task>",
	Short: "Select skills for a task within a context budget",
	Long: `Select runs one selection session: the task description is scored against
every skill in the store, conflicts are resolved, and the winners are packed
into the budget. The rendered selection is printed to stdout for the host to
inject.

Examples:
  skillet select "write a unit test for formatDate"
  skillet select "refactor the parser" --budget 4000 --capability claude-4
  skillet select "debug the webhook" --explain
  skillet select "summarize this repo" --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := getSelectConfigFromFlags(cmd)
		return runSelect(cmd.Context(), strings.Join(args, " "), config)
	},
}

func init() {
	defaults := NewSelectConfig()
	selectCmd.Flags().IntP("budget", "b", defaults.Budget, "Maximum total content size of the selection")
	selectCmd.Flags().StringP("capability", "c", "", "Host capability tier matched against skill compatibility")
	selectCmd.Flags().StringP("format", "f", defaults.Format, "Output format (text or json)")
	selectCmd.Flags().Bool("explain", false, "Print the per-candidate resolution trace instead of content")
	selectCmd.Flags().String("sizer", "", "Size measure: chars or tokens (overrides config)")

	rootCmd.AddCommand(selectCmd)
}

func getSelectConfigFromFlags(cmd *cobra.Command) *SelectConfig {
	config := NewSelectConfig()
	if budget, err := cmd.Flags().GetInt("budget"); err == nil {
		config.Budget = budget
	}
	if capability, err := cmd.Flags().GetString("capability"); err == nil {
		config.Capability = capability
	}
	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	if explain, err := cmd.Flags().GetBool("explain"); err == nil {
		config.Explain = explain
	}
	if sizer, err := cmd.Flags().GetString("sizer"); err == nil && sizer != "" {
		viper.Set("sizer", sizer)
	}
	return config
}

func runSelect(ctx context.Context, task string, config *SelectConfig) error {
	store, _, err := loadStore(ctx)
	if err != nil {
		return err
	}

	eng, err := newEngine(store)
	if err != nil {
		return err
	}

	var result *engine.Result
	err = telemetry.WithSpan(ctx, "skillet.select", func(ctx context.Context) error {
		var err error
		result, err = eng.Select(ctx, engine.Request{
			Task:       task,
			Budget:     config.Budget,
			Capability: config.Capability,
		})
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case config.Format == "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case config.Explain:
		fmt.Print(result.Explain())
		return nil
	default:
		fmt.Print(renderSelection(result))
		return nil
	}
}

// renderSelection formats the injection payload the way a host would splice
// it into its context window: one titled section per included skill.
func renderSelection(result *engine.Result) string {
	var sb strings.Builder
	for i, entry := range result.Selection.Entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		title := entry.Name
		if entry.Truncated {
			title += " (truncated)"
		}
		fmt.Fprintf(&sb, "# Skill: %s\n\n%s\n", title, entry.Content)
	}
	return sb.String()
}
