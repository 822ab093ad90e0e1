package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contextforge/skillet/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := version.Get()

		if jsonOut, err := cmd.Flags().GetBool("json"); err == nil && jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Printf("skillet %s (%s)\n", info.Version, info.GitCommit)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Output version information as JSON")
	rootCmd.AddCommand(versionCmd)
}
