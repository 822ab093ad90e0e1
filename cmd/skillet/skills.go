package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/contextforge/skillet/pkg/presenter"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered skills",
	Long:  `List every skill discovered from the configured skill directories with its description, priority, and tags.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, _, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}

		snapshot := store.Snapshot()
		if snapshot.Len() == 0 {
			presenter.Info("No skills found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPRIORITY\tCOMPATIBILITY\tDESCRIPTION")
		for _, rec := range snapshot.All() {
			compat := rec.Compatibility
			if compat == "" {
				compat = "*"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", rec.Name, rec.Priority, compat, rec.Description)
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Show a skill's metadata and content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}

		rec, ok := store.Snapshot().Get(args[0])
		if !ok {
			return errors.Errorf("skill %q not found", args[0])
		}

		presenter.Section(rec.Name)
		presenter.Info(fmt.Sprintf("Description: %s", rec.Description))
		if rec.Compatibility != "" {
			presenter.Info(fmt.Sprintf("Compatibility: %s", rec.Compatibility))
		}
		presenter.Info(fmt.Sprintf("Priority: %d", rec.Priority))
		if len(rec.Tags) > 0 {
			presenter.Info(fmt.Sprintf("Tags: %v", rec.Tags))
		}
		if len(rec.Requires) > 0 {
			presenter.Info(fmt.Sprintf("Requires: %v", rec.Requires))
		}
		if rec.Directory != "" {
			presenter.Info(fmt.Sprintf("Directory: %s", rec.Directory))
		}
		presenter.Separator()
		fmt.Println(rec.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
