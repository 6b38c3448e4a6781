package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/haivivi/avatar/cmd/avatar/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.String())
		if IsVerbose() {
			fmt.Printf("  go:     %s\n", runtime.Version())
			if cfg, err := GetConfig(); err == nil {
				file := cfg.File
				if file == "" {
					file = "(defaults)"
				}
				fmt.Printf("  config: %s\n", file)
			} else {
				fmt.Printf("  config: %v\n", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
